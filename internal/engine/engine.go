// Package engine implements C3, the filesystem translator: it wires C1
// (pathexpr), C2 (store) and C4 (identity) into a bazil.org/fuse node tree
// so the kernel bridge can issue lookup/readdir/mkdir/symlink/unlink/
// rename/getattr/readlink against a collection (spec.md §4.3).
package engine

import (
	"log/slog"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/identity"
	"github.com/amoffat/supertag/internal/linkbackend"
	"github.com/amoffat/supertag/internal/store"
)

// Engine owns one collection's store and configuration and is the context
// explicitly threaded into every node (spec.md §9 "avoid ambient
// singletons" so tests can instantiate multiple engines in-process).
type Engine struct {
	Store      *store.Store
	Config     config.Config
	Link       linkbackend.Backend
	Log        *slog.Logger
	ManagedDir string // macOS alias-blob directory; stored only, no code writes blobs here

	mountpoint string
}

// New constructs an Engine ready to Serve. managedDir is the
// "<app_support>/managed_files" directory spec.md §6 describes for macOS
// alias blobs; it may be empty on platforms whose link backend is a no-op.
// The Engine keeps the path but writes nothing there: the alias blob the
// link backend records is stored on the File row itself.
func New(st *store.Store, cfg config.Config, link linkbackend.Backend, log *slog.Logger, managedDir string) *Engine {
	return &Engine{Store: st, Config: cfg, Link: link, Log: log, ManagedDir: managedDir}
}

// Serve mounts the collection at mountpoint and blocks, serving bridge
// requests until the kernel unmounts it. If ready is non-nil, it is
// invoked once the kernel handshake completes, before
// fs.Serve starts blocking — this is what lets `tag mount`'s foreground
// child report its PID back to the forking parent only after the mount
// actually succeeded, not merely after the process started.
func (e *Engine) Serve(mountpoint string, ready func()) error {
	e.mountpoint = mountpoint
	c, err := fuse.Mount(mountpoint,
		fuse.FSName("supertag"),
		fuse.Subtype("supertag"),
		fuse.LocalVolume(), // only affects Finder on macOS
		fuse.VolumeName("Supertag"),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	if e.Log != nil {
		e.Log.Info("mounted collection", "mountpoint", mountpoint)
	}
	if ready != nil {
		ready()
	}

	if err := fs.Serve(c, &FS{eng: e}); err != nil {
		return err
	}

	<-c.Ready
	if err := c.MountError; err != nil {
		return err
	}
	return nil
}

// Unmount asks the kernel to tear down an active mount (spec.md §6 `tag
// unmount`).
func Unmount(mountpoint string) error {
	return fuse.Unmount(mountpoint)
}

// Stat reports the synthetic statfs totals spec.md §4.3 describes: counts
// of Files and Tags in the collection.
type Stat struct {
	Tags  int
	Files int
}

func (e *Engine) rootDir() *Dir {
	cfg := e.Config
	return &Dir{
		eng: e,
		attrs: dirAttrs{
			inode: identity.RootInode,
			uid:   cfg.Mount.UID,
			gid:   cfg.Mount.GID,
			perm:  cfg.Mount.Permissions,
		},
	}
}

// FS is the bazil.org/fuse entry point.
type FS struct{ eng *Engine }

var _ fs.FS = (*FS)(nil)

func (f *FS) Root() (fs.Node, error) {
	return f.eng.rootDir(), nil
}
