package main

import "github.com/spf13/cobra"

func newRmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <tag>",
		Short: "delete a tag directly, bypassing the bridge's refusal (spec.md §4.3.3)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, segs, err := resolveVirtualPath(args[0])
			if err != nil {
				return err
			}
			eng, closeStore, err := openEngine(collection)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := eng.Rmdir(segs); err != nil {
				return classify(err)
			}
			return nil
		},
	}
}
