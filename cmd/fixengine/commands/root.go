// Package commands implements the fixengine CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fixengine",
	Short: "A standalone FIX session engine",
	Long: `fixengine runs a single FIX session, as either the initiator or the
acceptor of the TCP connection, driven by a YAML configuration file.

Use "fixengine [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it. It is
// called once by main.main.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		PrintErr("%v", err)
		return err
	}
	return nil
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/fixengine/config.yaml)")

	rootCmd.AddCommand(startInitiatorCmd)
	rootCmd.AddCommand(startAcceptorCmd)
	rootCmd.AddCommand(initCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}
