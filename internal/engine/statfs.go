package engine

import (
	"context"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

var _ = fs.FSStatfser(&FS{})

// Statfs reports the synthetic totals spec.md §4.3 describes for the
// bridge's statfs call: counts of Files and Tags rather than real block
// usage, since the collection has no meaningful disk-space concept of its
// own.
func (f *FS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	st, err := f.eng.stat()
	if err != nil {
		return err
	}
	resp.Files = uint64(st.Files) + uint64(st.Tags)
	resp.Ffree = 0
	resp.Bsize = 4096
	return nil
}

func (e *Engine) stat() (Stat, error) {
	tags, err := e.Store.GetAllTags()
	if err != nil {
		return Stat{}, err
	}
	files, err := e.Store.Intersect(nil, nil)
	if err != nil {
		return Stat{}, err
	}
	return Stat{Tags: len(tags), Files: len(files)}, nil
}
