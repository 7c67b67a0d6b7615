package main

import (
	"github.com/spf13/cobra"

	"github.com/amoffat/supertag/internal/engineerr"
)

func newLnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ln <target> <tagpath>",
		Short: "link an external file into a tag path, creating tags as needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, tagpath := args[0], args[1]
			collection, segs, err := resolveVirtualPath(tagpath)
			if err != nil {
				return err
			}
			eng, closeStore, err := openEngine(collection)
			if err != nil {
				return err
			}
			defer closeStore()

			if _, err := eng.LinkExternal(target, segs); err != nil {
				return classify(err)
			}
			return nil
		},
	}
}

// classify maps an engineerr.Kind to the CLI's exit-code taxonomy
// (spec.md §7): store-integrity and I/O failures are a 3, everything else
// naming a bad path or missing tag is a usage-level 1.
func classify(err error) error {
	switch {
	case engineerr.Is(err, engineerr.IntegrityFailure), engineerr.Is(err, engineerr.ExternalIOError):
		return storeErr("%v", err)
	default:
		return usageErr("%v", err)
	}
}
