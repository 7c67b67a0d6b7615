package store

import "time"

// Tag is the spec.md §3 Tag entity.
type Tag struct {
	ID         int64
	Name       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	UID        uint32
	GID        uint32
	Perm       uint32
	FileCount  int64
}

// Group is the spec.md §3 TagGroup entity.
type Group struct {
	ID         int64
	Name       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	UID        uint32
	GID        uint32
	Perm       uint32
}

// File is the spec.md §3 File entity.
type File struct {
	Device     uint64
	Inode      uint64
	PrimaryName string
	TargetPath string
	AliasBlob  []byte
	CreatedAt  time.Time
	ModifiedAt time.Time
	// id is the internal rowid; callers key Files by (Device, Inode), the
	// documented natural key, but the engine needs the rowid to address
	// FileTag rows directly (UnlinkFileFromTag, TagFile).
	id int64
}

// FileTagAttr is the per-association uid/gid/permissions from spec.md §3
// (the mode of the virtual symlink a file presents in one particular
// tag's directory).
type FileTagAttr struct {
	UID  uint32
	GID  uint32
	Perm uint32
}

// Pin is an ordered tag-id sequence kept listable even when empty
// (spec.md §3 Pin entity).
type Pin struct {
	ID     int64
	TagIDs []int64
}

// ID returns the file's internal rowid, used by the engine to address
// FileTag rows directly once a File has been resolved.
func (f File) ID() int64 { return f.id }

// Metadata is the spec.md §3 Metadata singleton row.
type Metadata struct {
	MigrationVersion int
	SoftwareVersion  string
	RootModifiedAt   time.Time
}
