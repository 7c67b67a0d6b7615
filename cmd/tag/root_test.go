package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engine"
	"github.com/amoffat/supertag/internal/engineerr"
)

func TestClassifyMapsErrorKinds(t *testing.T) {
	asUsage := classify(engineerr.New(engineerr.NotFound, "missing"))
	ce, ok := asUsage.(cliError)
	require.True(t, ok)
	require.Equal(t, 1, ce.code)

	asStore := classify(engineerr.New(engineerr.ExternalIOError, "disk"))
	ce, ok = asStore.(cliError)
	require.True(t, ok)
	require.Equal(t, 3, ce.code)

	asStore = classify(engineerr.New(engineerr.IntegrityFailure, "corrupt"))
	ce, ok = asStore.(cliError)
	require.True(t, ok)
	require.Equal(t, 3, ce.code)
}

func TestCliErrorCodesAndMessages(t *testing.T) {
	require.Equal(t, 1, usageErr("bad %s", "input").(cliError).code)
	require.Equal(t, 2, mountErr("mount %s failed", "x").(cliError).code)
	require.Equal(t, 3, storeErr("store %s failed", "x").(cliError).code)
	require.Equal(t, "bad input", usageErr("bad %s", "input").Error())
}

func TestResolveVirtualPathUnderMountedCollection(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	mountpoint := filepath.Join(t.TempDir(), "photos")
	root := config.ConfigRoot()
	require.NoError(t, engine.RegisterMount(root, engine.MountRecord{
		Collection: "photos",
		Mountpoint: mountpoint,
		StartedAt:  time.Unix(1, 0),
	}))

	collection, segs, err := resolveVirtualPath(filepath.Join(mountpoint, "people", "alice"))
	require.NoError(t, err)
	require.Equal(t, "photos", collection)
	require.Equal(t, []string{"people", "alice"}, segs)

	collection, segs, err = resolveVirtualPath(mountpoint)
	require.NoError(t, err)
	require.Equal(t, "photos", collection)
	require.Nil(t, segs)
}

func TestResolveVirtualPathNotMounted(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, _, err := resolveVirtualPath("/not/a/mounted/path")
	require.Error(t, err)
	require.Equal(t, 1, err.(cliError).code)
}
