package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/amoffat/supertag/internal/engineerr"
)

// MountRecord is one line of the `tag fstab` listing: a collection
// currently mounted somewhere on this host (spec.md §6 `tag fstab`).
type MountRecord struct {
	Collection string    `json:"collection"`
	Mountpoint string    `json:"mountpoint"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
}

func registryPath(configDir string) string {
	return filepath.Join(configDir, "mounts.json")
}

func readRegistry(configDir string) ([]MountRecord, error) {
	data, err := os.ReadFile(registryPath(configDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "reading mount registry", err)
	}
	var recs []MountRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, engineerr.Wrap(engineerr.IntegrityFailure, "parsing mount registry", err)
	}
	return recs, nil
}

func writeRegistry(configDir string, recs []MountRecord) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return engineerr.Wrap(engineerr.ExternalIOError, "creating config dir", err)
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return engineerr.Wrap(engineerr.IntegrityFailure, "encoding mount registry", err)
	}
	return os.WriteFile(registryPath(configDir), data, 0644)
}

// RegisterMount records a newly-started mount so `tag fstab` and `tag
// unmount` (with no collection argument) can find it later.
func RegisterMount(configDir string, rec MountRecord) error {
	recs, err := readRegistry(configDir)
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	return writeRegistry(configDir, recs)
}

// DeregisterMount removes the record for mountpoint, used once `tag
// unmount` has successfully asked the kernel to tear the mount down.
func DeregisterMount(configDir, mountpoint string) error {
	recs, err := readRegistry(configDir)
	if err != nil {
		return err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.Mountpoint != mountpoint {
			out = append(out, r)
		}
	}
	return writeRegistry(configDir, out)
}

// ListMounts returns every registered mount, oldest first, so the caller
// can mark the oldest as primary the way `tag fstab` does.
func ListMounts(configDir string) ([]MountRecord, error) {
	recs, err := readRegistry(configDir)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.Before(recs[j].StartedAt) })
	return recs, nil
}

// FindMount resolves a possibly-empty collection argument for `tag
// unmount`: an empty name means "the primary" (oldest), by the same
// ordering ListMounts establishes.
func FindMount(configDir, collection string) (MountRecord, error) {
	recs, err := ListMounts(configDir)
	if err != nil {
		return MountRecord{}, err
	}
	if len(recs) == 0 {
		return MountRecord{}, engineerr.New(engineerr.NotFound, "no mounted collections")
	}
	if collection == "" {
		return recs[0], nil
	}
	for _, r := range recs {
		if r.Collection == collection || r.Mountpoint == collection {
			return r, nil
		}
	}
	return MountRecord{}, engineerr.New(engineerr.NotFound, "collection not mounted: "+collection)
}
