package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg *Config
	out *Output
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "pinky",
		Short: "Party game client and dev server",
		Long: `pinky runs the party game from the terminal.

The serve command hosts the row-store API that game clients talk to.
The play command runs an interactive client session against a server,
and events streams a room's raw change feed.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out = NewOutput(cfg.Output)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: PINKY_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
