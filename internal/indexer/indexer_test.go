package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/store"
)

var testDBCounter int

func newTestStore(t *testing.T) *store.Store {
	testDBCounter++
	dsn := fmt.Sprintf("file:indexertest%d?mode=memory&cache=shared", testDBCounter)
	st, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIndexPathsTagsByExtension(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "beach.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.xyz"), []byte("x"), 0644))

	st := newTestStore(t)
	mnt := config.Mount{UID: 1, GID: 1, Permissions: 0644}
	require.NoError(t, IndexPaths(context.Background(), st, mnt, nil, []string{root}))

	media, err := st.ResolveTag("media")
	require.NoError(t, err)
	image, err := st.ResolveTag("image")
	require.NoError(t, err)
	files, err := st.Intersect([]int64{media.ID, image.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "beach.jpg", files[0].PrimaryName)

	doc, err := st.ResolveTag("document")
	require.NoError(t, err)
	files, err = st.Intersect([]int64{doc.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "notes.md", files[0].PrimaryName)

	fallback, err := st.ResolveTag(defaultTag)
	require.NoError(t, err)
	files, err = st.Intersect([]int64{fallback.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "blob.xyz", files[0].PrimaryName)
}

func TestIndexPathsSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "subdir", "a.txt"), []byte("x"), 0644))

	st := newTestStore(t)
	mnt := config.Mount{UID: 1, GID: 1, Permissions: 0644}
	require.NoError(t, IndexPaths(context.Background(), st, mnt, nil, []string{root}))

	doc, err := st.ResolveTag("document")
	require.NoError(t, err)
	files, err := st.Intersect([]int64{doc.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestInferTagsFallsBackToUncategorized(t *testing.T) {
	require.Equal(t, []string{defaultTag}, inferTags("/some/file.unknownext"))
	require.Equal(t, extensionTags[".go"], inferTags("/some/main.GO"))
}

func TestIndexPathsMultipleRootsConcurrently(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootA, "a.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "b.txt"), []byte("x"), 0644))

	st := newTestStore(t)
	mnt := config.Mount{UID: 1, GID: 1, Permissions: 0644}
	require.NoError(t, IndexPaths(context.Background(), st, mnt, nil, []string{rootA, rootB}))

	doc, err := st.ResolveTag("document")
	require.NoError(t, err)
	files, err := st.Intersect([]int64{doc.ID}, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
}
