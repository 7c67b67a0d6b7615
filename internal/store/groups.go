package store

import (
	"database/sql"

	"github.com/amoffat/supertag/internal/engineerr"
)

// ResolveGroup looks up a TagGroup by name.
func (s *Store) ResolveGroup(name string) (Group, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at, modified_at, uid, gid, permissions
		FROM tag_group WHERE name = ?`, name)
	return scanGroup(row)
}

func scanGroup(row *sql.Row) (Group, error) {
	var g Group
	var created, modified int64
	if err := row.Scan(&g.ID, &g.Name, &created, &modified, &g.UID, &g.GID, &g.Perm); err != nil {
		return Group{}, scanErr("resolving group", err)
	}
	g.CreatedAt = unixToTime(created)
	g.ModifiedAt = unixToTime(modified)
	return g, nil
}

// CreateGroup creates a new TagGroup. name must already carry the
// configured tag-group suffix; that's validated by ValidateTagName before
// this is called.
func (s *Store) CreateGroup(name string, uid, gid, perm uint32) (Group, error) {
	var created Group
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := s.resolveTag(tx, name); err == nil {
			return engineerr.New(engineerr.AlreadyExists, "a tag already has this name: "+name)
		}
		row := tx.QueryRow(`SELECT id FROM tag_group WHERE name = ?`, name)
		var existingID int64
		if err := row.Scan(&existingID); err == nil {
			return engineerr.New(engineerr.AlreadyExists, "tag group already exists: "+name)
		}
		now := nowUnix()
		res, err := tx.Exec(`INSERT INTO tag_group(name, created_at, modified_at, uid, gid, permissions)
			VALUES (?, ?, ?, ?, ?, ?)`, name, now, now, uid, gid, perm)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "inserting tag group", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "reading tag group id", err)
		}
		created = Group{ID: id, Name: name, CreatedAt: unixToTime(now), ModifiedAt: unixToTime(now), UID: uid, GID: gid, Perm: perm}
		return nil
	})
	return created, err
}

// AddGroupMember adds tagID to groupID's membership (TagGroupMember, a
// many-to-many association per spec.md §3).
func (s *Store) AddGroupMember(groupID, tagID int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT OR IGNORE INTO tag_group_member(group_id, tag_id) VALUES (?, ?)`, groupID, tagID)
		if err != nil {
			return engineerr.Wrap(engineerr.ExternalIOError, "adding group member", err)
		}
		return nil
	})
}

// GroupMembers lists the tags belonging to groupID.
func (s *Store) GroupMembers(groupID int64) ([]Tag, error) {
	rows, err := s.db.Query(`SELECT t.id, t.name, t.created_at, t.modified_at, t.uid, t.gid, t.permissions, t.file_count
		FROM tag t JOIN tag_group_member m ON m.tag_id = t.id WHERE m.group_id = ? ORDER BY t.name ASC`, groupID)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "listing group members", err)
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		var created, modified int64
		if err := rows.Scan(&t.ID, &t.Name, &created, &modified, &t.UID, &t.GID, &t.Perm, &t.FileCount); err != nil {
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning group member", err)
		}
		t.CreatedAt = unixToTime(created)
		t.ModifiedAt = unixToTime(modified)
		out = append(out, t)
	}
	return out, nil
}

// TagGroupsOver returns, for every tag id in tagIDs that belongs to at
// least one group, the set of groups it belongs to — used by readdir's
// tag-group projection (spec.md §4.3.1): "if a tag belongs to multiple
// groups, all applicable groups are listed".
func (s *Store) TagGroupsOver(tagIDs []int64) (map[int64][]Group, error) {
	out := make(map[int64][]Group)
	if len(tagIDs) == 0 {
		return out, nil
	}
	for _, tagID := range tagIDs {
		rows, err := s.db.Query(`SELECT g.id, g.name, g.created_at, g.modified_at, g.uid, g.gid, g.permissions
			FROM tag_group g JOIN tag_group_member m ON m.group_id = g.id WHERE m.tag_id = ?`, tagID)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.ExternalIOError, "finding groups for tag", err)
		}
		var groups []Group
		for rows.Next() {
			var g Group
			var created, modified int64
			if err := rows.Scan(&g.ID, &g.Name, &created, &modified, &g.UID, &g.GID, &g.Perm); err != nil {
				rows.Close()
				return nil, engineerr.Wrap(engineerr.ExternalIOError, "scanning group", err)
			}
			g.CreatedAt = unixToTime(created)
			g.ModifiedAt = unixToTime(modified)
			groups = append(groups, g)
		}
		rows.Close()
		if len(groups) > 0 {
			out[tagID] = groups
		}
	}
	return out, nil
}
