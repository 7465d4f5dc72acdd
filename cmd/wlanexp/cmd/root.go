// Package cmd provides the command-line interface of wlanexp.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/wlanexp/config"
)

// NewRootCommand creates the wlanexp command. Without a subcommand it runs
// the experiment.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wlanexp",
		Short: "Run a single-cell WLAN throughput experiment.",
		Long: `wlanexp simulates one access point and four stations that push ` +
			`bulk TCP traffic to it. It prints the throughput at the access ` +
			`point every 100 ms and a per-flow report at the end.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runExperiment,
	}

	fs := rootCmd.PersistentFlags()
	fs.String("config", "", "YAML file with the experiment parameters")
	fs.String("env-file", ".env", "File with WLANEXP_* variables")
	config.RegisterFlags(fs, config.Default())

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newFlowsCommand())
	rootCmd.AddCommand(newShowCommand())

	return rootCmd
}

// Execute runs the command line and exits. The exit code is 1 if the
// command failed.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
