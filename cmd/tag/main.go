// Command tag is the administrative CLI described in spec.md §6: it mounts
// and unmounts collections, lists what's currently mounted, and reaches the
// non-bridge entry points (`ln`, `rmdir`, `mv`), including the tag deletion
// the kernel bridge itself refuses as rmdir (§4.3.3).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if ce, ok := err.(cliError); ok {
			fmt.Fprintln(os.Stderr, ce.msg)
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliError carries the exit code spec.md §7 assigns to each error class:
// 1 usage, 2 collection/mount, 3 store.
type cliError struct {
	code int
	msg  string
}

func (e cliError) Error() string { return e.msg }

func usageErr(format string, a ...interface{}) error {
	return cliError{code: 1, msg: fmt.Sprintf(format, a...)}
}

func mountErr(format string, a ...interface{}) error {
	return cliError{code: 2, msg: fmt.Sprintf(format, a...)}
}

func storeErr(format string, a ...interface{}) error {
	return cliError{code: 3, msg: fmt.Sprintf(format, a...)}
}
