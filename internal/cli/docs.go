package cli

import (
	"github.com/spf13/cobra"
)

func newDocsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "docs [doc-id]",
		Short: "Browse the API documentation tree, or open one entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if len(args) == 1 {
					doc, err := a.tracker.OpenDoc(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					renderDoc(cmd.OutOrStdout(), doc)
					return nil
				}

				structure, err := a.tracker.DocStructure(cmd.Context())
				if err != nil {
					return err
				}
				renderDocTree(cmd.OutOrStdout(), structure)
				return nil
			})
		},
	}
}
