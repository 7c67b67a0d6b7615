// Package linkbackend abstracts the platform divergence between macOS
// alias files and plain Linux symlink targets behind the capability
// spec.md §9 describes: "record/resolve/relocate".
package linkbackend

// Backend is implemented once per platform. The filesystem translator
// (C3) calls it on every symlink creation and readlink resolution so the
// core stays free of #ifdef-style branching.
type Backend interface {
	// Record captures whatever self-healing information the platform can
	// offer for target, returning an opaque blob to persist on the File
	// (nil if the platform has none, e.g. Linux).
	Record(target string) ([]byte, error)
	// Resolve returns the real path to present for readlink, preferring
	// blob's recorded information and falling back to fallbackPath (the
	// File's stored target_path) if blob is nil or stale.
	Resolve(blob []byte, fallbackPath string) (string, error)
	// Relocate re-derives an updated blob after the underlying file may
	// have moved, returning the same blob unchanged if the platform has
	// no relocation support.
	Relocate(blob []byte) ([]byte, error)
}
