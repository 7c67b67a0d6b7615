package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engine"
)

func newFstabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fstab",
		Short: "list mounted collections, marking the primary with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := engine.ListMounts(config.ConfigRoot())
			if err != nil {
				return storeErr("%v", err)
			}
			for i, r := range recs {
				mark := " "
				if i == 0 {
					mark = "*"
				}
				fmt.Printf("%s %-20s %-30s pid %-8d mounted %s\n",
					mark, r.Collection, r.Mountpoint, r.PID, humanize.Time(r.StartedAt))
			}
			return nil
		},
	}
}
