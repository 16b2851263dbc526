package cli

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// withApp opens the services for one command and closes them afterwards
func withApp(opts *options, fn func(a *app) error) error {
	a, err := newApp(opts.cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func newSpinner(cmd *cobra.Command, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + suffix
	return s
}

func newRefreshCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch and show the API calls tracked in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				calls, err := a.tracker.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), calls)
				}
				renderCalls(cmd.OutOrStdout(), calls)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the calls as JSON")
	return cmd
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the API calls tracked in this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if err := a.tracker.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Tracked API calls cleared.")
				return nil
			})
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.py>",
		Short: "Run a Python file on the tracking backend and show its API calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				s := newSpinner(cmd, "Running "+args[0])
				s.Start()
				res, err := a.tracker.RunFile(cmd.Context(), args[0])
				s.Stop()
				if err != nil {
					return err
				}
				renderRun(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func newDetailsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "details <call-id>",
		Short: "Show the request and response of one tracked call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				// Fresh process: load the session's calls before resolving the id
				if _, err := a.tracker.Refresh(cmd.Context()); err != nil {
					return err
				}
				call, err := a.tracker.Details(args[0])
				if err != nil {
					return err
				}
				renderCall(cmd.OutOrStdout(), call)
				return nil
			})
		},
	}
}
