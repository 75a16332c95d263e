package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/pkg/agent"
	"github.com/haivivi/agentkit/pkg/agentcfg"
	"github.com/haivivi/agentkit/pkg/cli"
)

const (
	defaultConfigFile = "config/agent_config.yaml"
	defaultEnvFile    = ".env"
)

var (
	// Global flags
	verbose      bool
	cfgFile      string
	envFile      string
	formatOutput string
)

var rootCmd = &cobra.Command{
	Use:   "agentkit",
	Short: "Train and run configurable AI agents",
	Long: `agentkit - A command line interface for building AI agents.

An agent is configured by a YAML or JSON document and comes in three kinds:
  conversational  answers through a hosted language model (openai, anthropic, gemini)
  classifier      labels text with a locally trained TF-IDF random forest
  custom          a minimal echo agent to start from

Credentials are read from the environment; a .env file is loaded first.

Examples:
  # Write starter corpora and train a classifier
  agentkit data init
  agentkit train --agent-type classifier --training-data data/training/example_classifier.json

  # Chat with a trained agent
  agentkit infer --model models/trained/

  # Answer a single question
  agentkit infer --query "When do you open?"`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "agent configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "environment file loaded before running")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "yaml", "output format for structured results (yaml, json, raw)")
}

// setup configures logging and the environment before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})))
	cli.Stdout, cli.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()

	if _, err := cli.ParseFormat(formatOutput); err != nil {
		return err
	}
	return loadEnv(envFile)
}

// loadEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("env file not found, using process environment", "path", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	slog.Debug("env file loaded", "path", path)
	return nil
}

// loadConfig reads the --config document.
func loadConfig() (*agentcfg.Config, error) {
	return agentcfg.Load(cfgFile, slog.Default())
}

// agentOptions returns the construction options shared by every command.
func agentOptions() *agent.Options {
	return &agent.Options{Logger: slog.Default()}
}

// resolveKind picks the agent kind: the flag, then agent.type from the
// configuration, then conversational.
func resolveKind(flag string, cfg *agentcfg.Config) (agent.Kind, error) {
	switch {
	case flag != "":
		return agent.ParseKind(flag)
	case cfg != nil && cfg.Agent.Type != "":
		return agent.ParseKind(cfg.Agent.Type)
	}
	return agent.KindConversational, nil
}

// output writes v to the command's stdout in the --format format.
func output(cmd *cobra.Command, v any) error {
	f, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	return cli.Output(v, cli.OutputOptions{Format: f, Writer: cmd.OutOrStdout()})
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
