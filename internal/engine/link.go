package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/amoffat/supertag/internal/engineerr"
	"github.com/amoffat/supertag/internal/identity"
	"github.com/amoffat/supertag/internal/pathexpr"
	"github.com/amoffat/supertag/internal/store"
)

// Symlink implements spec.md §4.3 `symlink`: the target's basename becomes
// the File's primary_name regardless of the name the caller requested, and
// every positive tag in this directory is applied to it. A target that
// resolves inside this same mount retags the File already tracked there
// instead of creating a second record.
func (d *Dir) Symlink(ctx context.Context, req *fuse.SymlinkRequest) (fs.Node, error) {
	if len(d.positive) == 0 || len(d.negative) != 0 {
		return nil, fuse.EPERM
	}

	target := identity.StripSync(req.Target, d.symbols())
	absTarget := d.resolveTargetPath(target)
	mnt := d.eng.mountpoint
	if mnt != "" && strings.HasPrefix(absTarget, mnt) {
		return d.handleWithinFSLink(absTarget)
	}
	return d.handleExternalLink(absTarget)
}

func (d *Dir) handleExternalLink(absTarget string) (fs.Node, error) {
	fi, err := os.Stat(absTarget)
	if err != nil {
		return nil, engineerr.Errno(engineerr.Wrap(engineerr.ExternalIOError, "stat link target", err))
	}
	if fi.IsDir() {
		// Non-goal: recursive directory traversal on symlink.
		return nil, fuse.EPERM
	}
	device, inode, ok := devIno(fi)
	if !ok {
		return nil, engineerr.Errno(engineerr.New(engineerr.ExternalIOError, "cannot determine device/inode for link target"))
	}

	var blob []byte
	if d.eng.Link != nil {
		if b, err := d.eng.Link.Record(absTarget); err == nil {
			blob = b
		}
	}

	attr := d.fileTagAttr()
	f, err := d.eng.Store.LinkFile(device, inode, filepath.Base(absTarget), absTarget, blob, d.positiveIDs(), attr)
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	return d.fileNode(f), nil
}

func (d *Dir) handleWithinFSLink(absTarget string) (fs.Node, error) {
	rel := strings.TrimPrefix(strings.TrimPrefix(absTarget, d.eng.mountpoint), "/")
	parts := strings.Split(rel, "/")
	if len(parts) == 0 {
		return nil, fuse.ENOENT
	}
	fileName := parts[len(parts)-1]
	tagSegs := parts[:len(parts)-1]

	var positive []int64
	for _, seg := range tagSegs {
		expr, err := pathexpr.Parse(seg, d.symbols())
		if err != nil || len(expr.Positive) != 1 {
			return nil, fuse.ENOENT
		}
		t, err := d.eng.Store.ResolveTag(expr.Positive[0].Name)
		if err != nil {
			return nil, engineerr.Errno(err)
		}
		positive = append(positive, t.ID)
	}

	files, err := d.eng.Store.FindByName(positive, fileName)
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	if len(files) != 1 {
		return nil, fuse.ENOENT
	}

	attr := d.fileTagAttr()
	if err := d.eng.Store.TagFile(files[0].ID(), d.positiveIDs(), attr); err != nil {
		return nil, engineerr.Errno(err)
	}
	return d.fileNode(files[0]), nil
}

func (d *Dir) fileTagAttr() store.FileTagAttr {
	mnt := d.eng.Config.Mount
	return store.FileTagAttr{UID: mnt.UID, GID: mnt.GID, Perm: mnt.Permissions}
}

// resolveTargetPath turns req.Target (which may be relative to this
// directory) into an absolute path, resolving "." and ".." against the
// current tag path rather than a real directory.
func (d *Dir) resolveTargetPath(target string) string {
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	cwd := append([]string(nil), strings.Split(strings.Trim(d.eng.mountpoint, "/"), "/")...)
	cwd = append(cwd, d.segments...)
	for _, tok := range strings.Split(target, "/") {
		switch tok {
		case "", ".":
		case "..":
			if len(cwd) > 0 {
				cwd = cwd[:len(cwd)-1]
			}
		default:
			cwd = append(cwd, tok)
		}
	}
	return "/" + strings.Join(cwd, "/")
}

// Link implements the collection's repurposing of the hard-link syscall:
// tagging an already-managed File with this directory's tags (spec.md §9
// notes true cross-device hard links are impossible here; the bridge call
// is reinterpreted as "also tag with these").
func (d *Dir) Link(ctx context.Context, req *fuse.LinkRequest, old fs.Node) (fs.Node, error) {
	if len(d.positive) == 0 || len(d.negative) != 0 {
		return nil, fuse.EPERM
	}
	f, ok := old.(*File)
	if !ok {
		return nil, fuse.EPERM
	}
	if err := d.eng.Store.TagFile(f.info.ID(), d.positiveIDs(), d.fileTagAttr()); err != nil {
		return nil, engineerr.Errno(err)
	}
	return old, nil
}

var _ = fs.NodeSymlinker(&Dir{})
var _ = fs.NodeLinker(&Dir{})
