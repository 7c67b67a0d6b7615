package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engine"
)

const foregroundFlag = "--foreground"

func newMountCmd() *cobra.Command {
	var foreground bool
	cmd := &cobra.Command{
		Use:   "mount <collection>",
		Short: "mount a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			if foreground {
				return runForeground(collection)
			}
			return forkAndReportPID(collection)
		},
	}
	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "run in the foreground instead of forking")
	return cmd
}

// runForeground performs the actual mount in this process — either because
// the user passed -f directly, or because this invocation is the
// daemonized child re-exec'd by forkAndReportPID with --foreground.
func runForeground(collection string) error {
	eng, closeStore, err := openEngine(collection)
	if err != nil {
		return err
	}
	defer closeStore()

	mountpoint := filepath.Join(eng.Config.Mount.BaseDir, collection)
	if err := os.MkdirAll(mountpoint, 0755); err != nil {
		return mountErr("creating mountpoint %s: %v", mountpoint, err)
	}

	sessionID := uuid.NewString()
	ready := func() {
		_ = engine.RegisterMount(config.ConfigRoot(), engine.MountRecord{
			Collection: collection,
			Mountpoint: mountpoint,
			PID:        os.Getpid(),
			StartedAt:  time.Now(),
		})
		if pidPipe != nil {
			fmt.Fprintf(pidPipe, "%d\n", os.Getpid())
			pidPipe.Close()
		}
		if eng.Log != nil {
			eng.Log.Info("mount ready", "collection", collection, "session", sessionID, "mountpoint", mountpoint)
		}
	}
	defer engine.DeregisterMount(config.ConfigRoot(), mountpoint)

	if err := eng.Serve(mountpoint, ready); err != nil {
		return mountErr("serving collection %s: %v", collection, err)
	}
	return nil
}

// pidPipe, when non-nil, is the inherited write end of the pipe the forking
// parent reads the child's PID from once the mount handshake succeeds
// (SPEC_FULL.md CLI surface: fork-and-report-PID daemonize).
var pidPipe *os.File

// forkAndReportPID re-execs the current binary with --foreground and an
// inherited pipe, then blocks until the child writes its PID back (meaning
// fuse.Mount succeeded) or exits early (meaning it failed).
func forkAndReportPID(collection string) error {
	self, err := os.Executable()
	if err != nil {
		return mountErr("resolving executable path: %v", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return mountErr("creating handoff pipe: %v", err)
	}

	cmd := exec.Command(self, "mount", collection, foregroundFlag)
	cmd.ExtraFiles = []*os.File{w}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		w.Close()
		r.Close()
		return mountErr("starting mount daemon: %v", err)
	}
	w.Close()

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return mountErr("mount daemon exited before reporting readiness")
	}
	fmt.Println(scanner.Text())
	return nil
}

func init() {
	// The re-exec'd child inherits fd 3 as its handoff pipe when present.
	if f := os.NewFile(3, "pidpipe"); f != nil {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeNamedPipe != 0 {
			pidPipe = f
		}
	}
}
