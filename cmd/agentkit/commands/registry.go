package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/pkg/agent"
	"github.com/haivivi/agentkit/pkg/cli"
	"github.com/haivivi/agentkit/pkg/registry"
)

const defaultRegistry = "sqlite://models/registry.db"

var registryURI string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect trained agents recorded in a registry",
	Long: `Inspect trained agents recorded by 'agentkit train --registry'.

Registries are addressed by URI:
  memory://          in-process (useful only for tests)
  badger://<dir>     BadgerDB directory
  sqlite://<file>    SQLite database file

Examples:
  agentkit registry list
  agentkit registry show Helper --format json
  agentkit registry delete Helper --registry badger://models/registry`,
}

// recordSummary is one row of 'registry list'.
type recordSummary struct {
	Name      string     `json:"name" yaml:"name"`
	Version   string     `json:"version" yaml:"version"`
	Kind      agent.Kind `json:"kind" yaml:"kind"`
	Accuracy  string     `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	ID        string     `json:"id" yaml:"id"`
}

// recordDetail is the output of 'registry show'.
type recordDetail struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Version   string          `json:"version" yaml:"version"`
	Kind      agent.Kind      `json:"kind" yaml:"kind"`
	Location  string          `json:"location,omitempty" yaml:"location,omitempty"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	Metrics   *agent.Metrics  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Report    string          `json:"report,omitempty" yaml:"report,omitempty"`
	Snapshot  *agent.Snapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(registryURI, slog.Default())
		if err != nil {
			return err
		}
		defer reg.Close()

		records, err := reg.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			cli.PrintInfo("no agents registered in %s", registryURI)
			return nil
		}
		rows := make([]recordSummary, len(records))
		for i, r := range records {
			rows[i] = recordSummary{
				Name:      r.Name,
				Version:   r.Version,
				Kind:      r.Kind,
				CreatedAt: r.CreatedAt,
				ID:        r.ID,
			}
			if r.Metrics != nil {
				rows[i].Accuracy = cli.FormatPercent(r.Metrics.Accuracy)
			}
		}
		return output(cmd, rows)
	},
}

var registryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a registered agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(registryURI, slog.Default())
		if err != nil {
			return err
		}
		defer reg.Close()

		r, err := reg.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		d := recordDetail{
			ID:        r.ID,
			Name:      r.Name,
			Version:   r.Version,
			Kind:      r.Kind,
			Location:  r.Location,
			CreatedAt: r.CreatedAt,
			Metrics:   r.Metrics,
			Report:    r.Report,
		}
		if s, err := r.Decode(); err != nil {
			slog.Warn("snapshot unreadable", "name", r.Name, "error", err)
		} else {
			d.Snapshot = s
		}
		return output(cmd, d)
	},
}

var registryDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a registered agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Open(registryURI, slog.Default())
		if err != nil {
			return err
		}
		defer reg.Close()

		if err := reg.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("deleted %s", args[0])
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryURI, "registry", defaultRegistry, "registry URI (memory://, badger://dir, sqlite://file)")
	registryCmd.AddCommand(registryListCmd, registryShowCmd, registryDeleteCmd)
	rootCmd.AddCommand(registryCmd)
}
