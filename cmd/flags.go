package cmd

import (
	"github.com/spf13/cobra"
)

const (
	flagHome        = "home"
	flagDebug       = "debug"
	flagLogFormat   = "log-format"
	flagJSON        = "json"
	flagYAML        = "yaml"
	flagMaxParallel = "max-parallel"
)

func jsonFlag(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	if err := a.Viper.BindPFlag(flagJSON, cmd.Flags().Lookup(flagJSON)); err != nil {
		panic(err)
	}
	return cmd
}

func yamlFlag(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagYAML, "y", false, "output using yaml")
	if err := a.Viper.BindPFlag(flagYAML, cmd.Flags().Lookup(flagYAML)); err != nil {
		panic(err)
	}
	return cmd
}

func maxParallelFlag(a *appState, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().IntP(flagMaxParallel, "p", 0, "fixtures verified concurrently, overrides the config file")
	if err := a.Viper.BindPFlag(flagMaxParallel, cmd.Flags().Lookup(flagMaxParallel)); err != nil {
		panic(err)
	}
	return cmd
}

// withUsage wraps a PositionalArgs to display usage only when the PositionalArgs
// variant is violated.
func withUsage(inner cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := inner(cmd, args); err != nil {
			cmd.Root().SilenceUsage = false
			cmd.SilenceUsage = false
			return err
		}

		return nil
	}
}
