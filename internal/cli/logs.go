package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogsCmd(opts *options) *cobra.Command {
	var (
		page     int
		size     int
		search   string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the persisted log history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if clearAll {
					if err := a.monitor.ClearHistory(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Log history cleared.")
					return nil
				}
				logs, total := a.monitor.History(page, size, search)
				renderLogs(cmd.OutOrStdout(), logs, total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 50, "entries per page")
	cmd.Flags().StringVarP(&search, "search", "q", "", "only entries whose message, endpoint or details contain this text")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete the persisted history")
	return cmd
}
