package engine

import (
	"context"
	"os"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/amoffat/supertag/internal/engineerr"
	"github.com/amoffat/supertag/internal/identity"
	"github.com/amoffat/supertag/internal/pathexpr"
)

// FiledirNode is the distinguished "⋂" (CLI alias "_") directory whose
// contents are exactly the owning Dir's intersection materialised as
// symlinks (spec.md §4.3 readdir, §4.4 Filedir). It delegates name
// resolution and unlink back to dir so a file stays reachable — and
// untaggable — whether addressed through the filedir or directly inside the
// tag directory itself.
type FiledirNode struct {
	dir *Dir
}

var _ fs.Node = (*FiledirNode)(nil)

func (fd *FiledirNode) Attr(ctx context.Context, a *fuse.Attr) error {
	mnt := fd.dir.eng.Config.Mount
	a.Inode = identity.TagDirInode(append(append([]int64(nil), fd.dir.combinedIDs()...), 1<<62))
	a.Mode = os.ModeDir | os.FileMode(mnt.Permissions)
	a.Uid = mnt.UID
	a.Gid = mnt.GID
	return nil
}

var _ = fs.HandleReadDirAller(&FiledirNode{})

// ReadDirAll lists every file in the owning Dir's intersection, applying
// spec.md §4.4's collision rule: a primary name shared by more than one
// file in the same intersection is rendered fully-qualified
// ("<name><device_char><device><inode_char><inode>") instead of bare, the
// same resolution Dir.Lookup expects when it later receives that name back.
func (fd *FiledirNode) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	files, err := fd.dir.eng.Store.Intersect(fd.dir.positiveIDs(), fd.dir.negativeIDs())
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	sym := fd.dir.symbols()
	entries := make([]identity.NameEntry, len(files))
	for i, f := range files {
		entries[i] = identity.NameEntry{DisplayName: f.PrimaryName, IsFile: true, Device: f.Device, Inode: f.Inode}
	}
	names := identity.ResolveNames(entries, sym)

	out := make([]fuse.Dirent, 0, len(files))
	for i, f := range files {
		out = append(out, fuse.Dirent{
			Name:  names[i],
			Type:  fuse.DT_Link,
			Inode: identity.FileInode(f.Device, f.Inode),
		})
	}
	return out, nil
}

var _ = fs.NodeRequestLookuper(&FiledirNode{})

// Lookup first tries req.Name as a fully-qualified name (the form
// ReadDirAll hands back for a collided file, spec.md §4.4), resolving by
// device/inode the same way Dir.Lookup's FileLeaf branch does, before
// falling back to a plain primary-name match for the uncollided case.
func (fd *FiledirNode) Lookup(ctx context.Context, req *fuse.LookupRequest, resp *fuse.LookupResponse) (fs.Node, error) {
	sym := fd.dir.symbols()
	name := identity.StripSync(req.Name, sym)

	if expr, err := pathexpr.Parse(name, sym); err == nil && expr.Terminal == pathexpr.FileLeaf && expr.HasDevIno {
		f, err := fd.dir.eng.Store.FindByDevInoWithin(fd.dir.positiveIDs(), expr.Device, expr.Inode)
		if err != nil {
			return nil, engineerr.Errno(err)
		}
		return fd.dir.fileNode(f), nil
	}

	files, err := fd.dir.eng.Store.FindByName(fd.dir.positiveIDs(), name)
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	if len(files) != 1 {
		return nil, fuse.ENOENT
	}
	return fd.dir.fileNode(files[0]), nil
}

var _ = fs.NodeRemover(&FiledirNode{})

// Remove applies the same deepest-tag-only semantics as Dir.Remove
// (spec.md §4.3.2), since unlinking through the filedir names the same
// association as unlinking the file directly inside the tag directory.
func (fd *FiledirNode) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	return fd.dir.Remove(ctx, req)
}
