package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/pkg/cli"
	"github.com/haivivi/agentkit/pkg/dataset"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Corpus utilities",
	Long: `Corpus utilities: write starter examples, normalise a corpus for an
agent kind, and split it into training, validation and test sets.`,
}

var dataInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write example conversational and classifier corpora",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "data/training"
		if len(args) == 1 {
			dir = args[0]
		}
		paths, err := dataset.WriteExamples(dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			cli.PrintSuccess("wrote %s", p)
		}
		return nil
	},
}

var dataFlags struct {
	prepareKind, prepareOutput string
	splitKind, splitOutput     string

	clean  bool
	repair bool
	query  string

	train, val, test float64
	seed             int64
}

var dataPrepareCmd = &cobra.Command{
	Use:   "prepare <input>",
	Short: "Normalise a corpus for an agent kind",
	Long: `Load a corpus, map its fields onto the schema of the agent kind and
write the result as a JSON array.

Conversational records get user, assistant and context; classifier records
get text and label. Records with every field empty are dropped.

Examples:
  agentkit data prepare raw/ --kind classifier --output data/training/classifier.json
  agentkit data prepare dump.json --query '.rows[]' --clean --output prepared.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadCorpus(args[0])
		if err != nil {
			return err
		}
		records = dataset.Prepare(records, dataFlags.prepareKind)
		if err := dataset.Save(records, dataFlags.prepareOutput); err != nil {
			return err
		}
		cli.PrintSuccess("wrote %d records to %s", len(records), dataFlags.prepareOutput)
		return nil
	},
}

var dataSplitCmd = &cobra.Command{
	Use:   "split <input>",
	Short: "Split a corpus into train, val and test files",
	Long: `Shuffle a corpus with a fixed seed and split it into train.json,
val.json and test.json.

Ratios and seed default to training.train_ratio, val_ratio, test_ratio and
seed from the configuration (0.7, 0.15, 0.15 and 42 when unset). The ratios
must sum to 1.

Examples:
  agentkit data split data/raw.json --output data/
  agentkit data split data/raw.json --train 0.8 --val 0.1 --test 0.1 --seed 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := dataset.DefaultSplitOptions()
		opts.Train, opts.Val, opts.Test, opts.Seed = cfg.SplitRatios()
		flags := cmd.Flags()
		if flags.Changed("train") {
			opts.Train = dataFlags.train
		}
		if flags.Changed("val") {
			opts.Val = dataFlags.val
		}
		if flags.Changed("test") {
			opts.Test = dataFlags.test
		}
		if flags.Changed("seed") {
			opts.Seed = dataFlags.seed
		}

		records, err := loadCorpus(args[0])
		if err != nil {
			return err
		}
		if dataFlags.splitKind != "" {
			records = dataset.Prepare(records, dataFlags.splitKind)
		}
		train, val, test, err := dataset.Split(records, opts)
		if err != nil {
			return err
		}
		for _, part := range []struct {
			name    string
			records []dataset.Record
		}{{"train.json", train}, {"val.json", val}, {"test.json", test}} {
			path := filepath.Join(dataFlags.splitOutput, part.name)
			if err := dataset.Save(part.records, path); err != nil {
				return err
			}
			cli.PrintSuccess("wrote %d records to %s", len(part.records), path)
		}
		return nil
	},
}

func init() {
	pf := dataPrepareCmd.Flags()
	pf.StringVar(&dataFlags.prepareKind, "kind", "conversational", "target schema (conversational, classifier)")
	pf.StringVarP(&dataFlags.prepareOutput, "output", "o", "data/prepared.json", "output file")
	pf.BoolVar(&dataFlags.clean, "clean", false, "collapse whitespace and drop control characters in string fields")
	addLoadFlags(dataPrepareCmd)

	sf := dataSplitCmd.Flags()
	sf.StringVar(&dataFlags.splitKind, "kind", "", "normalise for this schema before splitting")
	sf.StringVarP(&dataFlags.splitOutput, "output", "o", "data", "output directory")
	sf.BoolVar(&dataFlags.clean, "clean", false, "collapse whitespace and drop control characters in string fields")
	sf.Float64Var(&dataFlags.train, "train", 0.7, "training ratio")
	sf.Float64Var(&dataFlags.val, "val", 0.15, "validation ratio")
	sf.Float64Var(&dataFlags.test, "test", 0.15, "test ratio")
	sf.Int64Var(&dataFlags.seed, "seed", 42, "shuffle seed")
	addLoadFlags(dataSplitCmd)

	dataCmd.AddCommand(dataInitCmd, dataPrepareCmd, dataSplitCmd)
	rootCmd.AddCommand(dataCmd)
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dataFlags.repair, "repair", false, "repair malformed JSON files instead of skipping them")
	cmd.Flags().StringVar(&dataFlags.query, "query", "", "jq expression selecting records in JSON files")
}

// loadCorpus loads path, failing when nothing could be read.
func loadCorpus(path string) ([]dataset.Record, error) {
	records, err := dataset.Load(path, &dataset.LoadOptions{
		Logger: slog.Default(),
		Repair: dataFlags.repair,
		Query:  dataFlags.query,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found in %s", path)
	}
	if dataFlags.clean {
		for _, r := range records {
			for k, v := range r {
				if s, ok := v.(string); ok {
					r[k] = dataset.CleanText(s)
				}
			}
		}
	}
	return records, nil
}
