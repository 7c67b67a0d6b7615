package main

import (
	"github.com/spf13/cobra"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engine"
	"github.com/amoffat/supertag/internal/engineerr"
)

func newUnmountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmount [<collection>]",
		Short: "unmount one collection, or the primary if none is named",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			rec, err := engine.FindMount(config.ConfigRoot(), name)
			if err != nil {
				if engineerr.Is(err, engineerr.NotFound) {
					return mountErr("%v", err)
				}
				return storeErr("%v", err)
			}
			if err := engine.Unmount(rec.Mountpoint); err != nil {
				return mountErr("unmounting %s: %v", rec.Mountpoint, err)
			}
			return engine.DeregisterMount(config.ConfigRoot(), rec.Mountpoint)
		},
	}
}
