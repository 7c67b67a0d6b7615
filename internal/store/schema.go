package store

// schemaVersion gates the incremental schema upgrades spec.md §6 describes
// via supertag_meta.migration_version.
const schemaVersion = 1

const softwareVersion = "supertag-go/0.1"

// ddl implements the full spec.md §3 data model: files, tags, file_tags,
// tag groups and their membership, pins (with an ordered member table),
// and a metadata singleton.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS tag(
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		uid INTEGER NOT NULL,
		gid INTEGER NOT NULL,
		permissions INTEGER NOT NULL,
		file_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tag_name_idx ON tag(name)`,

	`CREATE TABLE IF NOT EXISTS tag_group(
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		uid INTEGER NOT NULL,
		gid INTEGER NOT NULL,
		permissions INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tag_group_name_idx ON tag_group(name)`,

	`CREATE TABLE IF NOT EXISTS tag_group_member(
		group_id INTEGER NOT NULL REFERENCES tag_group(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
		PRIMARY KEY (group_id, tag_id)
	)`,

	`CREATE TABLE IF NOT EXISTS file(
		id INTEGER PRIMARY KEY,
		device INTEGER NOT NULL,
		inode INTEGER NOT NULL,
		primary_name TEXT NOT NULL,
		target_path TEXT NOT NULL,
		alias_blob BLOB,
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS file_devino_idx ON file(device, inode)`,

	`CREATE TABLE IF NOT EXISTS file_tag(
		file_id INTEGER NOT NULL REFERENCES file(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		uid INTEGER NOT NULL,
		gid INTEGER NOT NULL,
		permissions INTEGER NOT NULL,
		PRIMARY KEY (file_id, tag_id)
	)`,

	`CREATE TABLE IF NOT EXISTS pin(
		id INTEGER PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS pin_tag(
		pin_id INTEGER NOT NULL REFERENCES pin(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (pin_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS supertag_meta(
		id INTEGER PRIMARY KEY CHECK (id = 0),
		migration_version INTEGER NOT NULL,
		software_version TEXT NOT NULL,
		root_modified_at INTEGER NOT NULL
	)`,
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	row := s.db.QueryRow("SELECT migration_version FROM supertag_meta WHERE id = 0")
	var version int
	switch err := row.Scan(&version); err {
	case nil:
		// present; future schemaVersion bumps would branch on version here.
		return nil
	default:
		_, err := s.db.Exec(
			"INSERT INTO supertag_meta(id, migration_version, software_version, root_modified_at) VALUES (0, ?, ?, ?)",
			schemaVersion, softwareVersion, nowUnix(),
		)
		return err
	}
}
