package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/wlanexp/config"
	"github.com/sarchlab/wlanexp/experiment"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the experiment (the default command).",
		Long: `Run the experiment. Parameters are taken from the defaults, ` +
			`then the --config file, then the env file and WLANEXP_* ` +
			`variables, then the command line.`,
		Args: cobra.NoArgs,
		RunE: runExperiment,
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	fs := cmd.Flags()

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		err := config.LoadFile(configFile, &cfg)
		if err != nil {
			return cfg, err
		}
	}

	envFile, _ := fs.GetString("env-file")

	err := config.LoadEnv(envFile, &cfg)
	if err != nil {
		return cfg, err
	}

	err = config.ApplyFlags(fs, &cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	x, err := experiment.MakeBuilder().
		WithConfig(cfg).
		WithOutput(cmd.OutOrStdout()).
		Build()
	if err != nil {
		return err
	}

	_, err = x.Run()

	return err
}
