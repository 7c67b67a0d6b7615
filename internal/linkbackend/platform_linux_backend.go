package linkbackend

// Linux is a no-op Backend: spec.md §9's Open Questions note that
// self-healing of File.target_path on Linux is explicitly not yet
// implemented upstream, so this mirrors that rather than inventing it.
type Linux struct{}

func (Linux) Record(target string) ([]byte, error) { return nil, nil }

func (Linux) Resolve(blob []byte, fallbackPath string) (string, error) {
	return fallbackPath, nil
}

func (Linux) Relocate(blob []byte) ([]byte, error) { return blob, nil }
