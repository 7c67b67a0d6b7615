package engine

import (
	"context"
	"io"
	"os"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/amoffat/supertag/internal/engineerr"
	"github.com/amoffat/supertag/internal/identity"
	"github.com/amoffat/supertag/internal/store"
)

// File is a symlink entry into an externally-stored file: spec.md §4.3
// presents every File as a symlink resolving to its target_path, never as a
// regular file.
type File struct {
	eng  *Engine
	info store.File
	attr store.FileTagAttr
}

// fileNode wraps f with the FileTag attributes of the deepest tag in this
// directory's positive set — spec.md §4.3 getattr: "stat of a symlink uses
// the FileTag's uid/gid/permissions". A root-level resolution (no positive
// tags) falls back to the mount's default ownership since there is no
// FileTag row to consult.
func (d *Dir) fileNode(f store.File) *File {
	attr := store.FileTagAttr{UID: d.eng.Config.Mount.UID, GID: d.eng.Config.Mount.GID, Perm: d.eng.Config.Mount.Permissions}
	if len(d.positive) > 0 {
		deepest := d.positive[len(d.positive)-1]
		if a, err := d.eng.Store.FileTagAttrFor(f.ID(), deepest.ID); err == nil {
			attr = a
		}
	}
	return &File{eng: d.eng, info: f, attr: attr}
}

var _ fs.Node = (*File)(nil)

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = identity.FileInode(f.info.Device, f.info.Inode)
	a.Mode = os.ModeSymlink | os.FileMode(f.attr.Perm)
	a.Uid = f.attr.UID
	a.Gid = f.attr.GID
	a.Size = uint64(len(f.info.TargetPath))
	a.Mtime = f.info.ModifiedAt
	a.Ctime = f.info.CreatedAt
	a.Crtime = f.info.CreatedAt
	return nil
}

var _ = fs.NodeReadlinker(&File{})

// Readlink resolves through the link backend first when the File carries
// an alias blob (spec.md §4.3 `readlink`, §9 link_backend), falling back to
// the recorded target_path when there is no backend or the blob can't
// resolve. No backend locates a target that has moved.
func (f *File) Readlink(ctx context.Context, req *fuse.ReadlinkRequest) (string, error) {
	if f.eng.Link != nil && len(f.info.AliasBlob) > 0 {
		if p, err := f.eng.Link.Resolve(f.info.AliasBlob, f.info.TargetPath); err == nil {
			return p, nil
		}
	}
	return f.info.TargetPath, nil
}

var _ = fs.NodeOpener(&File{})

// Open lets a caller that bypasses readlink (e.g. a program that opens the
// symlink path directly with O_NOFOLLOW off) read through to the target.
func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	r, err := os.Open(f.info.TargetPath)
	if err != nil {
		return nil, engineerr.Errno(engineerr.Wrap(engineerr.ExternalIOError, "opening link target", err))
	}
	return &FileHandle{r: r}, nil
}

type FileHandle struct {
	r *os.File
}

var _ fs.Handle = (*FileHandle)(nil)
var _ fs.HandleReleaser = (*FileHandle)(nil)

func (fh *FileHandle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return fh.r.Close()
}

var _ = fs.HandleReader(&FileHandle{})

func (fh *FileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	buf := make([]byte, req.Size)
	n, err := io.ReadFull(fh.r, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	resp.Data = buf[:n]
	return err
}
