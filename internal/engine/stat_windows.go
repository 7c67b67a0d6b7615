package engine

import "os"

// devIno has no natural-key equivalent on Windows (no stable inode exposed
// through os.FileInfo); callers must treat ok == false as "cannot link this
// target", matching spec.md §9's Windows scope note.
func devIno(fi os.FileInfo) (device, inode uint64, ok bool) {
	return 0, 0, false
}
