package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dirge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration tooling",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the merged configuration: defaults, the config file, and
DIRGE_* environment overrides, in that order of precedence.`,
	RunE: configShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Never print credentials.
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "(set)"
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
