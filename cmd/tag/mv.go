package main

import "github.com/spf13/cobra"

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "tag merge / rename (spec.md §4.3 rename)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromCollection, fromSegs, err := resolveVirtualPath(args[0])
			if err != nil {
				return err
			}
			toCollection, toSegs, err := resolveVirtualPath(args[1])
			if err != nil {
				return err
			}
			if fromCollection != toCollection {
				return usageErr("mv: %s and %s are not in the same collection", args[0], args[1])
			}

			eng, closeStore, err := openEngine(fromCollection)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := eng.Merge(fromSegs, toSegs); err != nil {
				return classify(err)
			}
			return nil
		},
	}
}
