package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/pkg/agent"
	"github.com/haivivi/agentkit/pkg/artifacts"
	"github.com/haivivi/agentkit/pkg/cli"
	"github.com/haivivi/agentkit/pkg/dataset"
	"github.com/haivivi/agentkit/pkg/registry"
)

var trainFlags struct {
	agentType    string
	trainingData string
	testData     string
	output       string
	noEval       bool
	registry     string
	repair       bool
	query        string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train an agent on a local corpus",
	Long: `Train an agent on a local corpus and save the result.

The corpus is a .json, .jsonl or .csv file, or a directory of them. Records
are normalised for the agent kind before training. When --test-data is
given, the trained agent is evaluated on it.

The output directory (or s3://bucket/prefix) receives agent.json, the agent
snapshot, and metrics.json, the evaluation metrics.

Examples:
  agentkit train --agent-type classifier --training-data data/training/example_classifier.json
  agentkit train --training-data data/training/ --test-data data/test/ --output s3://models/run1
  agentkit train --training-data dump.json --query '.items[]' --registry sqlite://models/registry.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd.Context(), cmd)
	},
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.agentType, "agent-type", "", "agent kind (conversational, classifier, custom); overrides agent.type")
	f.StringVar(&trainFlags.trainingData, "training-data", "data/training/", "training data file or directory")
	f.StringVar(&trainFlags.testData, "test-data", "", "test data file or directory (optional)")
	f.StringVar(&trainFlags.output, "output", "models/trained/", "output directory or s3://bucket/prefix")
	f.BoolVar(&trainFlags.noEval, "no-eval", false, "skip evaluation after training")
	f.StringVar(&trainFlags.registry, "registry", "", "record the trained agent in this registry (memory://, badger://dir, sqlite://file)")
	f.BoolVar(&trainFlags.repair, "repair", false, "repair malformed JSON files instead of skipping them")
	f.StringVar(&trainFlags.query, "query", "", "jq expression selecting records in JSON files")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kind, err := resolveKind(trainFlags.agentType, cfg)
	if err != nil {
		return err
	}
	logger.Info("creating agent", "kind", kind, "config", cfgFile)
	a, err := agent.NewFromConfig(kind, cfg, agentOptions())
	if err != nil {
		return err
	}

	lopts := &dataset.LoadOptions{Logger: logger, Repair: trainFlags.repair, Query: trainFlags.query}
	records, err := dataset.Load(trainFlags.trainingData, lopts)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no training data found in %s (supported formats: .json, .jsonl, .csv)", trainFlags.trainingData)
	}
	records = dataset.Prepare(records, string(kind))
	logger.Info("training data loaded", "examples", len(records))

	start := time.Now()
	report, err := a.Train(ctx, records)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if report != "" {
		fmt.Fprintln(cmd.OutOrStdout(), report)
	}

	var metrics *agent.Metrics
	if !trainFlags.noEval && trainFlags.testData != "" {
		test, err := dataset.Load(trainFlags.testData, lopts)
		if err != nil {
			return err
		}
		if len(test) > 0 {
			m := agent.Evaluate(ctx, a, dataset.Prepare(test, string(kind)))
			logger.Info("evaluation", "accuracy", m.Accuracy, "total", m.TotalSamples, "correct", m.CorrectPredictions)
			metrics = &m
		}
	}

	store, err := artifacts.Open(ctx, trainFlags.output, artifacts.S3ConfigFromEnv())
	if err != nil {
		return err
	}
	if err := saveResults(ctx, store, a, metrics); err != nil {
		return err
	}

	if trainFlags.registry != "" {
		if err := recordRun(ctx, trainFlags.registry, a, metrics, report, trainFlags.output); err != nil {
			return err
		}
	}

	cli.PrintSuccess("training completed in %s", cli.FormatDuration(time.Since(start)))
	if metrics != nil {
		cli.PrintInfo("accuracy: %s (%d/%d)", cli.FormatPercent(metrics.Accuracy), metrics.CorrectPredictions, metrics.TotalSamples)
	}
	cli.PrintInfo("to use the agent, run: agentkit infer --model %s --agent-type %s", trainFlags.output, kind)
	return nil
}

// saveResults writes the agent snapshot and the metrics. Without an
// evaluation the metrics file holds an empty object.
func saveResults(ctx context.Context, store artifacts.Store, a agent.Agent, metrics *agent.Metrics) error {
	snap, err := a.Snapshot().Marshal()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := store.Put(ctx, artifacts.AgentFile, snap); err != nil {
		return err
	}

	data := []byte("{}")
	if metrics != nil {
		if data, err = metrics.Marshal(); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	if err := store.Put(ctx, artifacts.MetricsFile, data); err != nil {
		return err
	}
	slog.Info("results saved", "agent", store.Location(artifacts.AgentFile), "metrics", store.Location(artifacts.MetricsFile))
	return nil
}

func recordRun(ctx context.Context, uri string, a agent.Agent, metrics *agent.Metrics, report, location string) error {
	reg, err := registry.Open(uri, slog.Default())
	if err != nil {
		return err
	}
	defer reg.Close()

	rec, err := registry.NewRecord(a, metrics, report)
	if err != nil {
		return err
	}
	rec.Location = location
	if err := reg.Put(ctx, rec); err != nil {
		return err
	}
	slog.Info("agent registered", "registry", uri, "name", rec.Name, "id", rec.ID)
	return nil
}
