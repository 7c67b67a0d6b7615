package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engine"
	"github.com/amoffat/supertag/internal/linkbackend"
	"github.com/amoffat/supertag/internal/logging"
	"github.com/amoffat/supertag/internal/store"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tag",
		Short:         "administer supertag collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMountCmd(),
		newUnmountCmd(),
		newFstabCmd(),
		newLnCmd(),
		newRmdirCmd(),
		newMvCmd(),
		newIndexCmd(),
	)
	return root
}

// openEngine opens the store for a named collection and wires an Engine
// around it, the same dependency graph cmd/tag/mount.go's foreground path
// and the non-bridge commands both need.
func openEngine(collection string) (*engine.Engine, func(), error) {
	if os.Getenv("STAG_LOG") == "1" {
		logDir := config.ConfigRoot() + string(os.PathSeparator) + collection
		logging.Enable(logDir + string(os.PathSeparator) + "trace.log")
	}

	root := config.ConfigRoot()
	dbPath := config.CollectionDB(root, collection)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, mountErr("creating collection directory: %v", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, storeErr("opening collection store: %v", err)
	}

	cfg, err := config.Load(root + string(os.PathSeparator) + collection + string(os.PathSeparator) + "config.toml")
	if err != nil {
		st.Close()
		return nil, nil, mountErr("loading configuration: %v", err)
	}

	var link linkbackend.Backend = linkbackend.Linux{}
	managedDir := ""
	if isDarwin {
		managedDir = config.ConfigRoot() + string(os.PathSeparator) + "managed_files"
		link = linkbackend.Darwin{}
	}

	eng := engine.New(st, cfg, link, logging.Logger(), managedDir)
	return eng, func() { st.Close() }, nil
}

// resolveVirtualPath maps an absolute path under a live mount (e.g.
// "/mnt/photos/people/alice") to the collection that owns it and the tag
// segments past the mountpoint, so `ln`/`rmdir`/`mv` can address a
// collection by path alone, the way the `tag` binary's bridge-bypassing
// commands are specified in spec.md §6 (no separate collection argument).
func resolveVirtualPath(path string) (collection string, segments []string, err error) {
	recs, lerr := engine.ListMounts(config.ConfigRoot())
	if lerr != nil {
		return "", nil, storeErr("%v", lerr)
	}
	clean := filepath.Clean(path)
	for _, r := range recs {
		mnt := filepath.Clean(r.Mountpoint)
		if clean == mnt {
			return r.Collection, nil, nil
		}
		if strings.HasPrefix(clean, mnt+string(os.PathSeparator)) {
			rel := strings.TrimPrefix(clean, mnt+string(os.PathSeparator))
			if rel == "" {
				return r.Collection, nil, nil
			}
			return r.Collection, strings.Split(rel, string(os.PathSeparator)), nil
		}
	}
	return "", nil, usageErr("path %s is not under any mounted collection", path)
}
