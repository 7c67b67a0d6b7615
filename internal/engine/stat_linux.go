package engine

import (
	"os"
	"syscall"
)

// devIno extracts the (device, inode) natural key a symlink target needs
// for Store.LinkFile from the platform's Stat_t.
func devIno(fi os.FileInfo) (device, inode uint64, ok bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return uint64(st.Dev), st.Ino, true
}
