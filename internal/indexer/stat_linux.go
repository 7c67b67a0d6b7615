package indexer

import (
	"os"
	"syscall"
)

func devIno(fi os.FileInfo) (device, inode uint64, ok bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return uint64(st.Dev), st.Ino, true
}
