package engine

import (
	"os"
	"path/filepath"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engineerr"
	"github.com/amoffat/supertag/internal/store"
)

// ResolveTagPath resolves a sequence of tag names into Tag rows, optionally
// creating each missing one — spec.md §4.3 symlink notes the CLI binary
// creates tags on demand where a manual `ln` through the bridge must fail,
// and §4.3.3 says only the `tag` binary may reach these operations at all.
func (e *Engine) ResolveTagPath(segs []string, createMissing bool) ([]store.Tag, error) {
	tags := make([]store.Tag, 0, len(segs))
	mnt := e.Config.Mount
	for _, seg := range segs {
		t, err := e.Store.ResolveTag(seg)
		if err != nil {
			if !createMissing {
				return nil, err
			}
			t, err = e.Store.CreateTag(seg, mnt.UID, mnt.GID, mnt.Permissions)
			if err != nil {
				return nil, err
			}
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// LinkExternal implements `tag ln <target> <tagpath>`: the administrative
// equivalent of Dir.Symlink that creates missing tags implicitly instead of
// failing (spec.md §6).
func (e *Engine) LinkExternal(target string, tagPath []string) (store.File, error) {
	tags, err := e.ResolveTagPath(tagPath, true)
	if err != nil {
		return store.File{}, err
	}
	fi, err := os.Stat(target)
	if err != nil {
		return store.File{}, engineerr.Wrap(engineerr.ExternalIOError, "stat link target", err)
	}
	if fi.IsDir() {
		return store.File{}, engineerr.New(engineerr.NameInvalid, "cannot link a directory")
	}
	device, inode, ok := devIno(fi)
	if !ok {
		return store.File{}, engineerr.New(engineerr.ExternalIOError, "cannot determine device/inode for link target")
	}

	var blob []byte
	if e.Link != nil {
		if b, err := e.Link.Record(target); err == nil {
			blob = b
		}
	}

	mnt := e.Config.Mount
	attr := store.FileTagAttr{UID: mnt.UID, GID: mnt.GID, Perm: mnt.Permissions}
	return e.Store.LinkFile(device, inode, filepath.Base(target), target, blob, idsOf(tags), attr)
}

// DeleteTag implements `delete_tag`, reachable only from the `tag` binary
// since the bridge itself refuses rmdir (spec.md §4.3.3).
func (e *Engine) DeleteTag(name string) error {
	t, err := e.Store.ResolveTag(name)
	if err != nil {
		return err
	}
	return e.Store.DeleteTag(t.ID)
}

// Rmdir implements `tag rmdir <tagpath>`: resolve every segment (failing if
// any is missing) and delete the deepest tag.
func (e *Engine) Rmdir(tagPath []string) error {
	if len(tagPath) == 0 {
		return engineerr.New(engineerr.NameInvalid, "empty tag path")
	}
	tags, err := e.ResolveTagPath(tagPath, false)
	if err != nil {
		return err
	}
	return e.Store.DeleteTag(tags[len(tags)-1].ID)
}

// Merge implements `tag mv <frompath> <topath>`: the same rename-as-merge
// semantics as Dir.Rename, bypassing the bridge and auto-creating
// destination tags, including the rename-to-`delete` idiom when topath is
// the configured sentinel and frompath names a single root-level tag.
func (e *Engine) Merge(fromPath, toPath []string) error {
	if len(fromPath) == 0 {
		return engineerr.New(engineerr.NameInvalid, "empty source path")
	}
	fromTags, err := e.ResolveTagPath(fromPath, false)
	if err != nil {
		return err
	}
	srcTag := fromTags[len(fromTags)-1]

	if len(fromPath) == 1 && len(toPath) == 1 && toPath[0] == config.DeleteSentinel {
		return e.Store.DeleteTag(srcTag.ID)
	}

	toTags, err := e.ResolveTagPath(toPath, true)
	if err != nil {
		return err
	}

	files, err := e.Store.Intersect(idsOf(fromTags), nil)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	fileIDs := make([]int64, len(files))
	for i, f := range files {
		fileIDs[i] = f.ID()
	}

	mnt := e.Config.Mount
	attr := store.FileTagAttr{UID: mnt.UID, GID: mnt.GID, Perm: mnt.Permissions}
	return e.Store.RetagFiles(fileIDs, srcTag.ID, idsOf(toTags), attr)
}
