// Package identity implements C4: deterministic inode allocation for
// virtual directory entries, collision detection/resolution, and
// recognition of the filedir and sync-character symbols (spec.md §4.4).
package identity

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/amoffat/supertag/internal/config"
)

// TagDirInode deterministically hashes a canonical (sorted) tag-id
// sequence into a stable inode number, so getattr/lookup agree across
// calls and across mounts of the same collection (spec.md §4.4, and the
// "Inode stability" testable property in §8).
func TagDirInode(tagIDs []int64) uint64 {
	sorted := append([]int64(nil), tagIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	h := fnv.New64a()
	for _, id := range sorted {
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(id >> (8 * i))
		}
		h.Write(buf[:])
	}
	// Reserve inode 1 for the collection root, matching fuse's convention
	// that the root inode is always 1; offset every tag-path hash away
	// from it.
	v := h.Sum64()
	if v <= 1 {
		v += 2
	}
	return v
}

// RootInode is the fixed inode number of the collection root directory.
const RootInode = 1

// FileInode deterministically hashes a File's natural key into a stable
// inode number. A leading marker byte makes the hashed input differ from
// any TagDirInode input (whose length is always a multiple of 8), so a
// symlink entry does not alias a directory entry within the same mount.
func FileInode(device, inode uint64) uint64 {
	h := fnv.New64a()
	h.Write([]byte{'f'})
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(device >> (8 * i))
		buf[8+i] = byte(inode >> (8 * i))
	}
	h.Write(buf[:])
	v := h.Sum64()
	if v <= 1 {
		v += 2
	}
	return v
}

// NameEntry is one candidate directory-listing entry subject to collision
// resolution: either a tag/group/pin (IsFile == false) or a file.
type NameEntry struct {
	DisplayName string
	IsFile      bool
	Device      uint64
	Inode       uint64
}

// ResolveNames applies spec.md §4.4's collision rule to a directory's raw
// entries: when two entries would share a display name, every file entry
// among them is rendered with the fully-qualified "<name><device_char><device><inode_char><inode>"
// suffix, while directory entries keep the bare name; a name that appears
// only once is rendered bare. Directories never collide with each other
// (tag names are unique per invariant 2), so only a tag-name/file-name
// clash or two files sharing a primary name trigger qualification.
func ResolveNames(entries []NameEntry, sym config.Symbols) []string {
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.DisplayName]++
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		if counts[e.DisplayName] > 1 && e.IsFile {
			out[i] = qualify(e, sym)
		} else {
			out[i] = e.DisplayName
		}
	}
	return out
}

func qualify(e NameEntry, sym config.Symbols) string {
	return e.DisplayName + sym.DeviceChar + itoa(e.Device) + sym.InodeChar + itoa(e.Inode)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// StripSync removes every occurrence of the configured sync character from
// path before interpretation, so it stays invisible to the path interpreter
// while still having been present on the wire to signal a cache flush
// (spec.md §4.4 "Sync character").
func StripSync(path string, sym config.Symbols) string {
	if sym.SyncChar == "" {
		return path
	}
	return strings.ReplaceAll(path, sym.SyncChar, "")
}

// HasSync reports whether path carries the sync character, i.e. the
// tagging process is requesting a cache flush before this operation
// proceeds.
func HasSync(path string, sym config.Symbols) bool {
	if sym.SyncChar == "" {
		return false
	}
	return strings.Contains(path, sym.SyncChar)
}

// IsFiledir reports whether seg is the configured filedir string or its
// CLI alias.
func IsFiledir(seg string, sym config.Symbols) bool {
	return seg == sym.FiledirStr || seg == sym.FiledirCLI
}
