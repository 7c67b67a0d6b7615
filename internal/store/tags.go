package store

import (
	"database/sql"
	"strings"

	"github.com/amoffat/supertag/internal/engineerr"
)

// NameRules enumerates the spec.md §3 invariant 2 substrings
// a tag name may never contain; the caller supplies the live symbol
// configuration since these are user-configurable.
type NameRules struct {
	Filedir     string
	FiledirCLI  string
	PathSep     string
	GroupSuffix string
}

// ValidateTagName enforces spec.md §3 invariant 2.
func ValidateTagName(name string, isGroup bool, rules NameRules) error {
	if name == "" {
		return engineerr.New(engineerr.NameInvalid, "tag name must not be empty")
	}
	if strings.Contains(name, rules.PathSep) {
		return engineerr.New(engineerr.NameInvalid, "tag name must not contain the path separator")
	}
	if name == rules.Filedir || name == rules.FiledirCLI {
		return engineerr.New(engineerr.NameInvalid, "tag name must not equal the filedir marker")
	}
	if strings.Contains(name, rules.Filedir) || strings.Contains(name, rules.FiledirCLI) {
		return engineerr.New(engineerr.NameInvalid, "tag name must not contain the filedir marker")
	}
	hasGroupSuffix := rules.GroupSuffix != "" && strings.HasSuffix(name, rules.GroupSuffix)
	if hasGroupSuffix != isGroup {
		if isGroup {
			return engineerr.New(engineerr.NameInvalid, "tag group name must end with the configured suffix")
		}
		return engineerr.New(engineerr.NameInvalid, "non-group tag name must not end with the group suffix")
	}
	return nil
}

// ResolveTag looks up a tag by name. Returns a NotFound *engineerr.Error if
// absent.
func (s *Store) ResolveTag(name string) (Tag, error) {
	return s.resolveTag(s.db, name)
}

// TagByID looks up a tag by its id, used by readdir to render the tag a
// Pin points past (spec.md §3 Pin lifecycle).
func (s *Store) TagByID(id int64) (Tag, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at, modified_at, uid, gid, permissions, file_count
		FROM tag WHERE id = ?`, id)
	return scanTag(row)
}

func (s *Store) resolveTag(q querier, name string) (Tag, error) {
	row := q.QueryRow(`SELECT id, name, created_at, modified_at, uid, gid, permissions, file_count
		FROM tag WHERE name = ?`, name)
	return scanTag(row)
}

func scanTag(row *sql.Row) (Tag, error) {
	var t Tag
	var created, modified int64
	if err := row.Scan(&t.ID, &t.Name, &created, &modified, &t.UID, &t.GID, &t.Perm, &t.FileCount); err != nil {
		return Tag{}, scanErr("resolving tag", err)
	}
	t.CreatedAt = unixToTime(created)
	t.ModifiedAt = unixToTime(modified)
	return t, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// CreateTag creates a new Tag with the given owner/mode. Returns
// AlreadyExists if a tag (or group) with this name exists.
func (s *Store) CreateTag(name string, uid, gid, perm uint32) (Tag, error) {
	var created Tag
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := s.resolveTag(tx, name); err == nil {
			return engineerr.New(engineerr.AlreadyExists, "tag already exists: "+name)
		}
		var groupID int64
		if err := tx.QueryRow(`SELECT id FROM tag_group WHERE name = ?`, name).Scan(&groupID); err == nil {
			return engineerr.New(engineerr.AlreadyExists, "a tag group already has this name: "+name)
		}
		now := nowUnix()
		res, err := tx.Exec(`INSERT INTO tag(name, created_at, modified_at, uid, gid, permissions, file_count)
			VALUES (?, ?, ?, ?, ?, ?, 0)`, name, now, now, uid, gid, perm)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "inserting tag", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "reading tag id", err)
		}
		created = Tag{ID: id, Name: name, CreatedAt: unixToTime(now), ModifiedAt: unixToTime(now), UID: uid, GID: gid, Perm: perm}
		return nil
	})
	return created, err
}

// EnsureTag returns the existing tag by name, or creates it if absent.
// Used by mkdir -p and `tag ln`'s implicit-create behavior.
func (s *Store) EnsureTag(name string, uid, gid, perm uint32) (Tag, error) {
	if t, err := s.ResolveTag(name); err == nil {
		return t, nil
	}
	return s.CreateTag(name, uid, gid, perm)
}

// RenameTag renames a tag in place. Nothing in the engine calls it: the
// bridge's rename and `tag mv` both merge through RetagFiles in files.go,
// which moves file associations rather than the tag identity.
func (s *Store) RenameTag(id int64, newName string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := s.resolveTag(tx, newName); err == nil {
			return engineerr.New(engineerr.AlreadyExists, "tag already exists: "+newName)
		}
		_, err := tx.Exec(`UPDATE tag SET name = ?, modified_at = ? WHERE id = ?`, newName, nowUnix(), id)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "renaming tag", err)
		}
		return nil
	})
}

// DeleteTag removes a tag and, via ON DELETE CASCADE, every FileTag,
// TagGroupMember, and Pin entry referencing it (invariants 4 and 5). Files
// that lose their last tag as a result are also deleted.
func (s *Store) DeleteTag(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT file_id FROM file_tag WHERE tag_id = ?`, id)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "listing files for tag", err)
		}
		var fileIDs []int64
		for rows.Next() {
			var fid int64
			if err := rows.Scan(&fid); err != nil {
				rows.Close()
				return engineerr.Wrap(engineerr.ExternalIOError, "scanning file id", err)
			}
			fileIDs = append(fileIDs, fid)
		}
		rows.Close()

		pinRows, err := tx.Query(`SELECT DISTINCT pin_id FROM pin_tag WHERE tag_id = ?`, id)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "listing pins for tag", err)
		}
		var pinIDs []int64
		for pinRows.Next() {
			var pid int64
			if err := pinRows.Scan(&pid); err != nil {
				pinRows.Close()
				return engineerr.Wrap(engineerr.ExternalIOError, "scanning pin id", err)
			}
			pinIDs = append(pinIDs, pid)
		}
		pinRows.Close()

		if _, err := tx.Exec(`DELETE FROM tag WHERE id = ?`, id); err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "deleting tag", err)
		}
		for _, fid := range fileIDs {
			if err := deleteFileIfOrphan(tx, fid); err != nil {
				return err
			}
		}
		// Invariant 5: a Pin referencing a deleted tag is removed entirely,
		// not merely trimmed of that tag.
		for _, pid := range pinIDs {
			if _, err := tx.Exec(`DELETE FROM pin WHERE id = ?`, pid); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "deleting orphaned pin", err)
			}
		}
		return nil
	})
}

// GetAllTags lists every tag in the collection, used for the root
// directory listing (the caller applies tag-group projection) and statfs.
func (s *Store) GetAllTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at, modified_at, uid, gid, permissions, file_count
		FROM tag ORDER BY name ASC`)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "listing tags", err)
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		var created, modified int64
		if err := rows.Scan(&t.ID, &t.Name, &created, &modified, &t.UID, &t.GID, &t.Perm, &t.FileCount); err != nil {
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning tag", err)
		}
		t.CreatedAt = unixToTime(created)
		t.ModifiedAt = unixToTime(modified)
		out = append(out, t)
	}
	return out, nil
}

// recomputeFileCount refreshes Tag.file_count for id so it always equals
// the number of FileTag rows referencing it (invariant 3).
func recomputeFileCount(tx *sql.Tx, tagID int64) error {
	_, err := tx.Exec(`UPDATE tag SET file_count = (SELECT COUNT(*) FROM file_tag WHERE tag_id = ?) WHERE id = ?`,
		tagID, tagID)
	if err != nil {
		return engineerr.Wrap(engineerr.IntegrityFailure, "recomputing tag file_count", err)
	}
	return nil
}
