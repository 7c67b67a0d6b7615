package linkbackend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinuxBackendIsANoOp(t *testing.T) {
	var b Backend = Linux{}
	blob, err := b.Record("/tmp/whatever")
	require.NoError(t, err)
	require.Nil(t, blob)

	resolved, err := b.Resolve(nil, "/fallback/path")
	require.NoError(t, err)
	require.Equal(t, "/fallback/path", resolved)

	same, err := b.Relocate([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, []byte("x"), same)
}

func TestDarwinBackendRecordAndResolveRoundtrip(t *testing.T) {
	target := filepath.Join(t.TempDir(), "beach.jpg")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0644))

	var b Backend = Darwin{}
	blob, err := b.Record(target)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	resolved, err := b.Resolve(blob, "/fallback")
	require.NoError(t, err)
	require.Equal(t, target, resolved)
}

func TestDarwinBackendResolveFallsBackWhenTargetGone(t *testing.T) {
	target := filepath.Join(t.TempDir(), "gone.jpg")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0644))

	b := Darwin{}
	blob, err := b.Record(target)
	require.NoError(t, err)
	require.NoError(t, os.Remove(target))

	resolved, err := b.Resolve(blob, "/fallback/path")
	require.NoError(t, err)
	require.Equal(t, "/fallback/path", resolved)
}

func TestDarwinBackendResolveRejectsBadMagic(t *testing.T) {
	b := Darwin{}
	resolved, err := b.Resolve([]byte("not-a-real-alias-blob"), "/fallback")
	require.NoError(t, err)
	require.Equal(t, "/fallback", resolved)
}

func TestDarwinBackendRelocateReencodesSamePath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "beach.jpg")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0644))

	b := Darwin{}
	blob, err := b.Record(target)
	require.NoError(t, err)

	relocated, err := b.Relocate(blob)
	require.NoError(t, err)

	resolved, err := b.Resolve(relocated, "/fallback")
	require.NoError(t, err)
	require.Equal(t, target, resolved)
}
