package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the agent configuration or its schema",
}

// effectiveConfig is the output of 'config show'.
type effectiveConfig struct {
	File        string                    `json:"file" yaml:"file"`
	Name        string                    `json:"name" yaml:"name"`
	Version     string                    `json:"version" yaml:"version"`
	Type        string                    `json:"type" yaml:"type"`
	Provider    string                    `json:"provider" yaml:"provider"`
	Model       string                    `json:"model" yaml:"model"`
	APIKey      string                    `json:"api_key" yaml:"api_key"`
	MaxMessages int                       `json:"max_messages" yaml:"max_messages"`
	Parameters  agentcfg.GenerationParams `json:"parameters" yaml:"parameters"`
	Document    *agentcfg.Config          `json:"document" yaml:"document"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration loaded from --config with every default applied.
The API key is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		kind, err := resolveKind("", cfg)
		if err != nil {
			return err
		}
		doc := cfg.Clone()
		doc.Model.APIKey = cli.MaskAPIKey(doc.Model.APIKey)
		return output(cmd, effectiveConfig{
			File:        cfgFile,
			Name:        cfg.Name(),
			Version:     cfg.Version(),
			Type:        string(kind),
			Provider:    cfg.Provider(),
			Model:       cfg.ModelName(),
			APIKey:      cli.MaskAPIKey(cfg.APIKey()),
			MaxMessages: cfg.MaxMessages(),
			Parameters:  cfg.GenerationParams(),
			Document:    doc,
		})
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := agentcfg.Schema()
		if err != nil {
			return err
		}
		return cli.Output(s, cli.OutputOptions{Format: cli.FormatJSON, Writer: cmd.OutOrStdout()})
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSchemaCmd)
	rootCmd.AddCommand(configCmd)
}
