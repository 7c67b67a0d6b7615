package engine

import "github.com/amoffat/supertag/internal/store"

// groupInodeOffset pushes a TagGroup's inode contribution well clear of
// any plausible tag-id range so a group view never aliases a tag-path's
// inode (spec.md §8 "Inode stability").
const groupInodeOffset = int64(1) << 40

// dirAttrs is the resolved getattr triple for a directory node: spec.md
// §4.3 says a Tag directory's stat uses the Tag's own uid/gid/permissions
// (and a TagGroup's uses the group's), computed once when the node is
// built rather than re-derived on every Attr call.
type dirAttrs struct {
	inode uint64
	uid   uint32
	gid   uint32
	perm  uint32
}

func idsOf(tags []store.Tag) []int64 {
	ids := make([]int64, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

// negatedIDs mirrors idsOf but negates each id so a negated tag
// contributes a distinct inode signature than the same tag positively
// held (tag ids are always >= 1, so negation never collides with 0).
func negatedIDs(tags []store.Tag) []int64 {
	ids := make([]int64, len(tags))
	for i, t := range tags {
		ids[i] = -t.ID
	}
	return ids
}

// setDiff returns the elements of b not present in a.
func setDiff(a, b []int64) []int64 {
	present := make(map[int64]bool, len(a))
	for _, v := range a {
		present[v] = true
	}
	var out []int64
	for _, v := range b {
		if !present[v] {
			out = append(out, v)
		}
	}
	return out
}
