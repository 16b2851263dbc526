// Package cli implements the apitracker commands.
package cli

import (
	"io"
	"log"
	"strings"

	"github.com/pysugar/api-tracker/internal/config"
	"github.com/spf13/cobra"
)

// options carries the global flags and the config they resolve to
type options struct {
	configPath string
	backendURL string
	verbose    bool

	cfg  *config.Config
	path string
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "apitracker",
		Short: "Track the API calls your Python code makes",
		Long: `apitracker runs Python files on the tracking backend, records every
outbound API call they make and shows them grouped by host. It also serves
a local dashboard with logs, activity and metrics.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.apitracker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "tracking backend URL, overrides backend_url")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log backend traffic")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(newClearCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newDetailsCmd(opts))
	rootCmd.AddCommand(newDocsCmd(opts))
	rootCmd.AddCommand(newLogsCmd(opts))
	rootCmd.AddCommand(newRefreshCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newWatchCmd(opts))

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) load(cmd *cobra.Command) error {
	path, err := config.ResolvePath(o.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.backendURL != "" {
		cfg.BackendURL = strings.TrimRight(o.backendURL, "/")
	}
	if o.verbose {
		cfg.Verbose = true
	}
	o.cfg = cfg
	o.path = path

	// Long-running commands keep the component log; one-shot commands only
	// print their result unless asked for more.
	switch cmd.Name() {
	case "serve", "watch":
		log.SetOutput(cmd.ErrOrStderr())
	default:
		if cfg.Verbose {
			log.SetOutput(cmd.ErrOrStderr())
		} else {
			log.SetOutput(io.Discard)
		}
	}
	return nil
}
