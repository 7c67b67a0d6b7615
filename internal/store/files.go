package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/amoffat/supertag/internal/engineerr"
)

// GetFileByDevIno looks up a File by its natural key. Returns NotFound if
// absent.
func (s *Store) GetFileByDevIno(device, inode uint64) (File, error) {
	row := s.db.QueryRow(`SELECT id, device, inode, primary_name, target_path, alias_blob, created_at, modified_at
		FROM file WHERE device = ? AND inode = ?`, device, inode)
	return scanFile(row)
}

func scanFile(row *sql.Row) (File, error) {
	var f File
	var created, modified int64
	if err := row.Scan(&f.id, &f.Device, &f.Inode, &f.PrimaryName, &f.TargetPath, &f.AliasBlob, &created, &modified); err != nil {
		return File{}, scanErr("resolving file", err)
	}
	f.CreatedAt = unixToTime(created)
	f.ModifiedAt = unixToTime(modified)
	return f, nil
}

// intersectQuery builds the "files linked to every tag in positive and
// none in negative" query from spec.md §4.2. Empty positive with empty
// negative returns every File (used indirectly via tag enumeration, per
// the store contract's note on root listing).
func intersectQuery(positive, negative []int64) (string, []interface{}) {
	q := strings.Builder{}
	q.WriteString(`SELECT f.id, f.device, f.inode, f.primary_name, f.target_path, f.alias_blob, f.created_at, f.modified_at FROM file f WHERE 1=1`)
	var args []interface{}
	for _, tagID := range positive {
		q.WriteString(` AND EXISTS (SELECT 1 FROM file_tag ft WHERE ft.file_id = f.id AND ft.tag_id = ?)`)
		args = append(args, tagID)
	}
	for _, tagID := range negative {
		q.WriteString(` AND NOT EXISTS (SELECT 1 FROM file_tag ft WHERE ft.file_id = f.id AND ft.tag_id = ?)`)
		args = append(args, tagID)
	}
	q.WriteString(` ORDER BY f.primary_name ASC`)
	return q.String(), args
}

// Intersect returns every File linked to all of positive and none of
// negative (spec.md §4.2 `intersect`).
func (s *Store) Intersect(positive, negative []int64) ([]File, error) {
	query, args := intersectQuery(positive, negative)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "intersecting files", err)
	}
	defer rows.Close()
	var out []File
	for rows.Next() {
		var f File
		var created, modified int64
		if err := rows.Scan(&f.id, &f.Device, &f.Inode, &f.PrimaryName, &f.TargetPath, &f.AliasBlob, &created, &modified); err != nil {
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning file", err)
		}
		f.CreatedAt = unixToTime(created)
		f.ModifiedAt = unixToTime(modified)
		out = append(out, f)
	}
	return out, nil
}

// FilesAt is Intersect's convenience form for a pure-positive expression
// (spec.md §4.2 `files_at`).
func (s *Store) FilesAt(positive []int64) ([]File, error) {
	return s.Intersect(positive, nil)
}

// SubTags returns the tags that, if added to positive, would leave the
// intersection non-empty, excluding any tag already present in positive or
// negative (spec.md §4.2 `sub_tags`). This is the query that powers
// readdir on a tag-path.
func (s *Store) SubTags(positive, negative []int64) ([]Tag, error) {
	exclude := make(map[int64]bool, len(positive)+len(negative))
	for _, id := range positive {
		exclude[id] = true
	}
	for _, id := range negative {
		exclude[id] = true
	}

	q := strings.Builder{}
	q.WriteString(`SELECT DISTINCT t.id, t.name, t.created_at, t.modified_at, t.uid, t.gid, t.permissions, t.file_count
		FROM tag t
		JOIN file_tag ft ON ft.tag_id = t.id
		WHERE EXISTS (
			SELECT 1 FROM file f WHERE f.id = ft.file_id`)
	var args []interface{}
	for _, tagID := range positive {
		q.WriteString(` AND EXISTS (SELECT 1 FROM file_tag ft2 WHERE ft2.file_id = f.id AND ft2.tag_id = ?)`)
		args = append(args, tagID)
	}
	for _, tagID := range negative {
		q.WriteString(` AND NOT EXISTS (SELECT 1 FROM file_tag ft2 WHERE ft2.file_id = f.id AND ft2.tag_id = ?)`)
		args = append(args, tagID)
	}
	q.WriteString(`)`)

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "computing sub-tags", err)
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		var created, modified int64
		if err := rows.Scan(&t.ID, &t.Name, &created, &modified, &t.UID, &t.GID, &t.Perm, &t.FileCount); err != nil {
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning sub-tag", err)
		}
		if exclude[t.ID] {
			continue
		}
		t.CreatedAt = unixToTime(created)
		t.ModifiedAt = unixToTime(modified)
		out = append(out, t)
	}
	return out, nil
}

// LinkFile upserts a File by (device, inode) and tags it with every id in
// tagIDs, applying attr as the FileTag's owner/mode. It also drops any Pin
// superseded by the new association (spec.md §4.3 symlink, §3 Pin
// lifecycle).
func (s *Store) LinkFile(device, inode uint64, primaryName, targetPath string, aliasBlob []byte, tagIDs []int64, attr FileTagAttr) (File, error) {
	var result File
	err := s.withTx(func(tx *sql.Tx) error {
		now := nowUnix()
		row := tx.QueryRow(`SELECT id, device, inode, primary_name, target_path, alias_blob, created_at, modified_at
			FROM file WHERE device = ? AND inode = ?`, device, inode)
		existing, err := scanFile(row)
		switch {
		case err == nil:
			result = existing
		case engineerr.Is(err, engineerr.NotFound):
			res, execErr := tx.Exec(`INSERT INTO file(device, inode, primary_name, target_path, alias_blob, created_at, modified_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`, device, inode, primaryName, targetPath, aliasBlob, now, now)
			if execErr != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "inserting file", execErr)
			}
			id, execErr := res.LastInsertId()
			if execErr != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "reading file id", execErr)
			}
			result = File{id: id, Device: device, Inode: inode, PrimaryName: primaryName, TargetPath: targetPath, AliasBlob: aliasBlob}
		default:
			return err
		}

		for _, tagID := range tagIDs {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO file_tag(file_id, tag_id, created_at, modified_at, uid, gid, permissions)
				VALUES (?, ?, ?, ?, ?, ?, ?)`, result.id, tagID, now, now, attr.UID, attr.GID, attr.Perm); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "tagging file", err)
			}
			if err := recomputeFileCount(tx, tagID); err != nil {
				return err
			}
		}
		if err := dropSupersededPins(tx, tagIDs, result.id); err != nil {
			return err
		}
		return nil
	})
	return result, err
}

// TagFile applies an existing file to additional tags, for the hard-link
// and within-filesystem symlink paths (spec.md §4.3 symlink/Link).
func (s *Store) TagFile(fileID int64, tagIDs []int64, attr FileTagAttr) error {
	return s.withTx(func(tx *sql.Tx) error {
		now := nowUnix()
		for _, tagID := range tagIDs {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO file_tag(file_id, tag_id, created_at, modified_at, uid, gid, permissions)
				VALUES (?, ?, ?, ?, ?, ?, ?)`, fileID, tagID, now, now, attr.UID, attr.GID, attr.Perm); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "tagging file", err)
			}
			if err := recomputeFileCount(tx, tagID); err != nil {
				return err
			}
		}
		return dropSupersededPins(tx, tagIDs, fileID)
	})
}

// UnlinkFileFromTag removes the single FileTag association for
// (fileID, tagID) — the "deepest tag only" unlink semantics of spec.md
// §4.3.2. Deletes the File entirely if this was its last tag.
func (s *Store) UnlinkFileFromTag(fileID, tagID int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM file_tag WHERE file_id = ? AND tag_id = ?`, fileID, tagID)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "untagging file", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return engineerr.New(engineerr.NotFound, "file was not tagged with this tag")
		}
		if err := recomputeFileCount(tx, tagID); err != nil {
			return err
		}
		return deleteFileIfOrphan(tx, fileID)
	})
}

// deleteFileIfOrphan deletes fileID's File row if it no longer has any
// FileTag rows (spec.md §3 File lifecycle).
func deleteFileIfOrphan(tx *sql.Tx, fileID int64) error {
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM file_tag WHERE file_id = ?`, fileID).Scan(&count); err != nil {
		return engineerr.Wrap(engineerr.ExternalIOError, "counting file tags", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := tx.Exec(`DELETE FROM file WHERE id = ?`, fileID); err != nil {
		return engineerr.Wrap(engineerr.ExternalIOError, "deleting orphaned file", err)
	}
	return nil
}

// MergeTag implements rename-as-merge (spec.md §4.3 rename, example 5):
// every file linked to srcTagID is untagged from it and tagged with every
// id in dstTagIDs instead.
func (s *Store) MergeTag(srcTagID int64, dstTagIDs []int64, attr FileTagAttr) error {
	return s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT file_id FROM file_tag WHERE tag_id = ?`, srcTagID)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "listing files for merge", err)
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

		now := nowUnix()
		for _, fid := range fileIDs {
			if _, err := tx.Exec(`DELETE FROM file_tag WHERE file_id = ? AND tag_id = ?`, fid, srcTagID); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "untagging during merge", err)
			}
			for _, dst := range dstTagIDs {
				if _, err := tx.Exec(`INSERT OR IGNORE INTO file_tag(file_id, tag_id, created_at, modified_at, uid, gid, permissions)
					VALUES (?, ?, ?, ?, ?, ?, ?)`, fid, dst, now, now, attr.UID, attr.GID, attr.Perm); err != nil {
					return engineerr.Wrap(engineerr.ExternalIOError, "tagging during merge", err)
				}
			}
		}
		if err := recomputeFileCount(tx, srcTagID); err != nil {
			return err
		}
		for _, dst := range dstTagIDs {
			if err := recomputeFileCount(tx, dst); err != nil {
				return err
			}
			if err := dropSupersededPins(tx, dstTagIDs, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

// RetagFiles moves exactly the given files (already computed as
// files_at(from_expr) by the caller) off srcTagID and onto every tag in
// dstTagIDs — the precise form of rename-as-merge (spec.md §4.3 rename):
// unlike MergeTag, which affects every file carrying srcTagID, this only
// touches files the caller has already scoped to the full from-expression,
// so an ancestor tag elsewhere in the path isn't required to also carry
// srcTagID for the file to be spared.
func (s *Store) RetagFiles(fileIDs []int64, srcTagID int64, dstTagIDs []int64, attr FileTagAttr) error {
	return s.withTx(func(tx *sql.Tx) error {
		now := nowUnix()
		for _, fid := range fileIDs {
			if _, err := tx.Exec(`DELETE FROM file_tag WHERE file_id = ? AND tag_id = ?`, fid, srcTagID); err != nil {
				return engineerr.Wrap(engineerr.ExternalIOError, "untagging during merge", err)
			}
			for _, dst := range dstTagIDs {
				if _, err := tx.Exec(`INSERT OR IGNORE INTO file_tag(file_id, tag_id, created_at, modified_at, uid, gid, permissions)
					VALUES (?, ?, ?, ?, ?, ?, ?)`, fid, dst, now, now, attr.UID, attr.GID, attr.Perm); err != nil {
					return engineerr.Wrap(engineerr.ExternalIOError, "tagging during merge", err)
				}
			}
			if err := deleteFileIfOrphan(tx, fid); err != nil {
				return err
			}
		}
		if err := recomputeFileCount(tx, srcTagID); err != nil {
			return err
		}
		for _, dst := range dstTagIDs {
			if err := recomputeFileCount(tx, dst); err != nil {
				return err
			}
		}
		return dropSupersededPins(tx, dstTagIDs, 0)
	})
}

// FindByName looks for files in the given intersection whose primary name
// matches name exactly, or (if name contains a fully-qualified
// device/inode suffix, handled by the caller before reaching here) is
// otherwise disambiguated upstream by identity.ResolveNames.
func (s *Store) FindByName(positive []int64, name string) ([]File, error) {
	files, err := s.Intersect(positive, nil)
	if err != nil {
		return nil, err
	}
	var out []File
	for _, f := range files {
		if f.PrimaryName == name {
			out = append(out, f)
		}
	}
	return out, nil
}

// FileTagAttrFor returns the per-association uid/gid/permissions for
// (fileID, tagID) — spec.md §4.3 getattr: "stat of a symlink uses the
// FileTag's uid/gid/permissions".
func (s *Store) FileTagAttrFor(fileID, tagID int64) (FileTagAttr, error) {
	var attr FileTagAttr
	row := s.db.QueryRow(`SELECT uid, gid, permissions FROM file_tag WHERE file_id = ? AND tag_id = ?`, fileID, tagID)
	if err := row.Scan(&attr.UID, &attr.GID, &attr.Perm); err != nil {
		return FileTagAttr{}, scanErr("resolving file-tag attributes", err)
	}
	return attr, nil
}

// FindByDevInoWithin looks for the file with the given device/inode among
// the files in the given intersection — used to resolve a fully-qualified
// lookup name.
func (s *Store) FindByDevInoWithin(positive []int64, device, inode uint64) (File, error) {
	files, err := s.Intersect(positive, nil)
	if err != nil {
		return File{}, err
	}
	for _, f := range files {
		if f.Device == device && f.Inode == inode {
			return f, nil
		}
	}
	return File{}, engineerr.New(engineerr.NotFound, fmt.Sprintf("no file %d/%d in this intersection", device, inode))
}
