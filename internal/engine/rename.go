package engine

import (
	"context"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engineerr"
	"github.com/amoffat/supertag/internal/identity"
	"github.com/amoffat/supertag/internal/store"
)

var _ = fs.NodeRenamer(&Dir{})

// Rename implements spec.md §4.3 rename-as-merge: every file in
// files_at(from_expr) is untagged from the deepest tag of from (req.OldName,
// resolved against this directory) and tagged with every segment of to
// (newDir's path plus req.NewName). The documented rename-to-`delete`
// idiom — the bridge's only sanctioned path to tag deletion, since rmdir
// itself is refused (spec.md §4.3.3) — is special-cased first.
func (d *Dir) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fs.Node) error {
	nd, ok := newDir.(*Dir)
	if !ok {
		return fuse.EXDEV
	}

	sym := d.symbols()
	oldName := identity.StripSync(req.OldName, sym)
	newName := identity.StripSync(req.NewName, sym)

	oldTag, err := d.eng.Store.ResolveTag(oldName)
	if err != nil {
		return engineerr.Errno(err)
	}

	if newName == config.DeleteSentinel &&
		len(d.positive) == 0 && len(d.negative) == 0 && d.group == nil &&
		len(nd.positive) == 0 && len(nd.negative) == 0 && nd.group == nil {
		return engineerr.Errno(d.eng.Store.DeleteTag(oldTag.ID))
	}

	fromPositive := append(append([]int64(nil), d.positiveIDs()...), oldTag.ID)
	files, err := d.eng.Store.Intersect(fromPositive, d.negativeIDs())
	if err != nil {
		return engineerr.Errno(err)
	}
	if len(files) == 0 {
		return nil
	}

	mnt := d.eng.Config.Mount
	destTag, err := nd.eng.Store.EnsureTag(newName, mnt.UID, mnt.GID, mnt.Permissions)
	if err != nil {
		return engineerr.Errno(err)
	}
	dstTagIDs := append(append([]int64(nil), nd.positiveIDs()...), destTag.ID)

	fileIDs := make([]int64, len(files))
	for i, f := range files {
		fileIDs[i] = f.ID()
	}

	attr := store.FileTagAttr{UID: mnt.UID, GID: mnt.GID, Perm: mnt.Permissions}
	return engineerr.Errno(d.eng.Store.RetagFiles(fileIDs, oldTag.ID, dstTagIDs, attr))
}
