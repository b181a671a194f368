package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quorumfx/fixengine/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample fixengine configuration file.

By default the file is created at $XDG_CONFIG_HOME/fixengine/config.yaml.
Use --config to choose a different path.

Examples:
  fixengine init
  fixengine init --config ./acceptor.yaml --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := &config.Config{
		Role:         "acceptor",
		SenderCompID: "FIXENGINE",
		TargetCompID: "COUNTERPARTY",
		ListenAddr:   "0.0.0.0:9878",
	}
	config.ApplyDefaults(cfg)

	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file: set role, comp IDs, and listen/dial address")
	fmt.Printf("  2. Start the engine with: fixengine start-acceptor --config %s\n", path)

	return nil
}
