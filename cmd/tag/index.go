package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/amoffat/supertag/internal/indexer"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <collection> <dir>...",
		Short: "bulk-import existing files into a collection by reference",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			dirs := args[1:]

			eng, closeStore, err := openEngine(collection)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := indexer.IndexPaths(context.Background(), eng.Store, eng.Config.Mount, eng.Log, dirs); err != nil {
				return storeErr("indexing: %v", err)
			}
			return nil
		},
	}
}
