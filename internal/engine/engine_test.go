package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"bazil.org/fuse"

	"github.com/stretchr/testify/require"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/linkbackend"
	"github.com/amoffat/supertag/internal/store"
)

var testDBCounter int

func newTestEngine(t *testing.T) *Engine {
	testDBCounter++
	dsn := fmt.Sprintf("file:enginetest%d?mode=memory&cache=shared", testDBCounter)
	st, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Defaults()
	cfg.Mount.UID = 1000
	cfg.Mount.GID = 1000
	cfg.Mount.Permissions = 0755
	return New(st, cfg, linkbackend.Linux{}, nil, "")
}

func TestDirMkdirAndLookupRoundtrip(t *testing.T) {
	eng := newTestEngine(t)
	root := eng.rootDir()

	node, err := root.Mkdir(context.Background(), &fuse.MkdirRequest{Name: "photos"})
	require.NoError(t, err)
	child := node.(*Dir)
	require.Len(t, child.positive, 1)
	require.Equal(t, "photos", child.positive[0].Name)

	looked, err := root.Lookup(context.Background(), &fuse.LookupRequest{Name: "photos"}, &fuse.LookupResponse{})
	require.NoError(t, err)
	require.IsType(t, &Dir{}, looked)
}

func TestDirReadDirAllListsTagsAndFiledir(t *testing.T) {
	eng := newTestEngine(t)
	root := eng.rootDir()
	_, err := root.Mkdir(context.Background(), &fuse.MkdirRequest{Name: "photos"})
	require.NoError(t, err)

	ents, err := root.ReadDirAll(context.Background())
	require.NoError(t, err)
	var names []string
	for _, e := range ents {
		names = append(names, e.Name)
	}
	require.Contains(t, names, "photos")
	require.Contains(t, names, eng.Config.Symbols.FiledirStr)
}

func TestDirSymlinkThenLookupFile(t *testing.T) {
	eng := newTestEngine(t)
	root := eng.rootDir()
	node, err := root.Mkdir(context.Background(), &fuse.MkdirRequest{Name: "photos"})
	require.NoError(t, err)
	photos := node.(*Dir)

	target := filepath.Join(t.TempDir(), "beach.jpg")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0644))

	fnode, err := photos.Symlink(context.Background(), &fuse.SymlinkRequest{Target: target, NewName: "beach.jpg"})
	require.NoError(t, err)
	f := fnode.(*File)
	require.Equal(t, "beach.jpg", f.info.PrimaryName)

	looked, err := photos.Lookup(context.Background(), &fuse.LookupRequest{Name: "beach.jpg"}, &fuse.LookupResponse{})
	require.NoError(t, err)
	require.IsType(t, &File{}, looked)
}

func TestDirSymlinkRefusedOnNegativeOnlyDir(t *testing.T) {
	eng := newTestEngine(t)
	root := eng.rootDir()
	a, err := eng.Store.CreateTag("a", 1, 1, 0755)
	require.NoError(t, err)
	dir := root.extendNegative(a)

	_, err = dir.Symlink(context.Background(), &fuse.SymlinkRequest{Target: "/tmp/x", NewName: "x"})
	require.Equal(t, fuse.EPERM, err)
}

func TestDirRemoveIsDeepestOnly(t *testing.T) {
	eng := newTestEngine(t)
	a, err := eng.Store.CreateTag("a", 1, 1, 0755)
	require.NoError(t, err)
	b, err := eng.Store.CreateTag("b", 1, 1, 0755)
	require.NoError(t, err)
	attr := store.FileTagAttr{UID: 1, GID: 1, Perm: 0644}
	f, err := eng.Store.LinkFile(1, 1, "f.txt", "/f.txt", nil, []int64{a.ID, b.ID}, attr)
	require.NoError(t, err)

	dirB := eng.rootDir().extendPositive(b)
	require.NoError(t, dirB.Remove(context.Background(), &fuse.RemoveRequest{Name: "f.txt"}))

	// Still reachable via a.
	got, err := eng.Store.FindByName([]int64{a.ID}, "f.txt")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, f.ID(), got[0].ID())

	// No longer reachable via b.
	got, err = eng.Store.FindByName([]int64{b.ID}, "f.txt")
	require.NoError(t, err)
	require.Len(t, got, 0)
}

func TestDirRemoveRefusesDirectories(t *testing.T) {
	eng := newTestEngine(t)
	root := eng.rootDir()
	err := root.Remove(context.Background(), &fuse.RemoveRequest{Name: "anything", Dir: true})
	require.Equal(t, fuse.EPERM, err)
}

func TestFiledirListsOnlyFiles(t *testing.T) {
	eng := newTestEngine(t)
	a, err := eng.Store.CreateTag("a", 1, 1, 0755)
	require.NoError(t, err)
	attr := store.FileTagAttr{UID: 1, GID: 1, Perm: 0644}
	_, err = eng.Store.LinkFile(1, 1, "f.txt", "/f.txt", nil, []int64{a.ID}, attr)
	require.NoError(t, err)

	dirA := eng.rootDir().extendPositive(a)
	fd := &FiledirNode{dir: dirA}
	ents, err := fd.ReadDirAll(context.Background())
	require.NoError(t, err)
	require.Len(t, ents, 1)
	require.Equal(t, "f.txt", ents[0].Name)
	require.Equal(t, fuse.DT_Link, ents[0].Type)
}

func TestRenameMovesFilesOntoDestinationTag(t *testing.T) {
	eng := newTestEngine(t)
	a, err := eng.Store.CreateTag("a", 1, 1, 0755)
	require.NoError(t, err)
	attr := store.FileTagAttr{UID: 1, GID: 1, Perm: 0644}
	_, err = eng.Store.LinkFile(1, 1, "f.txt", "/f.txt", nil, []int64{a.ID}, attr)
	require.NoError(t, err)

	root := eng.rootDir()
	err = root.Rename(context.Background(), &fuse.RenameRequest{OldName: "a", NewName: "b"}, root)
	require.NoError(t, err)

	b, err := eng.Store.ResolveTag("b")
	require.NoError(t, err)
	files, err := eng.Store.Intersect([]int64{b.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)

	files, err = eng.Store.Intersect([]int64{a.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 0)
}

func TestRenameToDeleteSentinelDeletesTag(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.Store.CreateTag("stale", 1, 1, 0755)
	require.NoError(t, err)

	root := eng.rootDir()
	err = root.Rename(context.Background(), &fuse.RenameRequest{OldName: "stale", NewName: config.DeleteSentinel}, root)
	require.NoError(t, err)

	_, err = eng.Store.ResolveTag("stale")
	require.Error(t, err)
}
