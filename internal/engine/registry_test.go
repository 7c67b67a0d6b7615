package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterListAndFindMount(t *testing.T) {
	dir := t.TempDir()

	older := MountRecord{Collection: "photos", Mountpoint: filepath.Join(dir, "m1"), PID: 1, StartedAt: time.Unix(100, 0)}
	newer := MountRecord{Collection: "docs", Mountpoint: filepath.Join(dir, "m2"), PID: 2, StartedAt: time.Unix(200, 0)}
	require.NoError(t, RegisterMount(dir, newer))
	require.NoError(t, RegisterMount(dir, older))

	mounts, err := ListMounts(dir)
	require.NoError(t, err)
	require.Len(t, mounts, 2)
	require.Equal(t, "photos", mounts[0].Collection, "oldest-first ordering")

	primary, err := FindMount(dir, "")
	require.NoError(t, err)
	require.Equal(t, "photos", primary.Collection)

	byName, err := FindMount(dir, "docs")
	require.NoError(t, err)
	require.Equal(t, newer.Mountpoint, byName.Mountpoint)

	_, err = FindMount(dir, "nope")
	require.Error(t, err)
}

func TestDeregisterMountRemovesRecord(t *testing.T) {
	dir := t.TempDir()
	rec := MountRecord{Collection: "photos", Mountpoint: filepath.Join(dir, "m1"), StartedAt: time.Unix(1, 0)}
	require.NoError(t, RegisterMount(dir, rec))
	require.NoError(t, DeregisterMount(dir, rec.Mountpoint))

	mounts, err := ListMounts(dir)
	require.NoError(t, err)
	require.Len(t, mounts, 0)
}

func TestFindMountNoneRegistered(t *testing.T) {
	dir := t.TempDir()
	_, err := FindMount(dir, "")
	require.Error(t, err)
}
