package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/agentkit/pkg/agent"
	"github.com/haivivi/agentkit/pkg/artifacts"
	"github.com/haivivi/agentkit/pkg/cli"
	"github.com/haivivi/agentkit/pkg/generators"
	"github.com/haivivi/agentkit/pkg/registry"
)

var inferFlags struct {
	model     string
	agentType string
	query     string
	input     string
	output    string
	registry  string
	name      string
}

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Query an agent",
	Long: `Query an agent interactively, with a single question, or in batch.

The agent is built from --config. With --model, the snapshot agent.json in
that directory (or s3://bucket/prefix) is restored over it; with --name, the
snapshot is taken from the registry instead.

Modes:
  (default)   interactive shell; type 'exit' to leave, 'history' to show the
              conversation, 'clear' to forget it
  --query     answer one question
  --input     answer every non-empty line of a file; --output saves the
              results as JSON

Examples:
  agentkit infer --model models/trained/
  agentkit infer --agent-type classifier --query "How much is a manicure?"
  agentkit infer --input questions.txt --output answers.json
  agentkit infer --registry sqlite://models/registry.db --name Helper`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if inferFlags.query != "" && inferFlags.input != "" {
			return errors.New("--query and --input are mutually exclusive")
		}
		a, err := loadAgent(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case inferFlags.query != "":
			fmt.Fprintf(out, "Question: %s\nAnswer: %s\n", inferFlags.query, a.Process(ctx, inferFlags.query))
			return nil
		case inferFlags.input != "":
			return runBatch(ctx, a, inferFlags.input, inferFlags.output, out)
		}
		return runShell(ctx, a, cmd.InOrStdin(), out)
	},
}

func init() {
	f := inferCmd.Flags()
	f.StringVar(&inferFlags.model, "model", "", "directory or s3://bucket/prefix holding agent.json")
	f.StringVar(&inferFlags.agentType, "agent-type", "", "agent kind (conversational, classifier, custom); overrides agent.type")
	f.StringVar(&inferFlags.query, "query", "", "answer a single question")
	f.StringVar(&inferFlags.input, "input", "", "batch input file, one question per line")
	f.StringVar(&inferFlags.output, "output", "", "batch results file (JSON)")
	f.StringVar(&inferFlags.registry, "registry", defaultRegistry, "registry used with --name")
	f.StringVar(&inferFlags.name, "name", "", "restore the named agent from the registry")
	rootCmd.AddCommand(inferCmd)
}

// loadAgent builds the agent and overlays the requested snapshot, if any.
func loadAgent(ctx context.Context) (agent.Agent, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	kind, err := resolveKind(inferFlags.agentType, cfg)
	if err != nil {
		return nil, err
	}
	opts := agentOptions()

	switch {
	case inferFlags.name != "":
		reg, err := registry.Open(inferFlags.registry, slog.Default())
		if err != nil {
			return nil, err
		}
		defer reg.Close()
		rec, err := reg.Get(ctx, inferFlags.name)
		if err != nil {
			return nil, err
		}
		s, err := rec.Decode()
		if err != nil {
			return nil, err
		}
		if inferFlags.agentType == "" && rec.Kind != "" {
			kind = rec.Kind
		}
		slog.Info("restoring agent from registry", "name", rec.Name, "kind", kind, "id", rec.ID)
		return agent.Restore(kind, s, cfgFile, opts)

	case inferFlags.model != "":
		store, err := artifacts.Open(ctx, inferFlags.model, artifacts.S3ConfigFromEnv())
		if err != nil {
			return nil, err
		}
		data, err := store.Get(ctx, artifacts.AgentFile)
		if errors.Is(err, artifacts.ErrNotExist) {
			slog.Warn("no snapshot found, using configuration only", "path", store.Location(artifacts.AgentFile))
			return agent.NewFromConfig(kind, cfg, opts)
		}
		if err != nil {
			return nil, err
		}
		s, err := agent.UnmarshalSnapshot(data)
		if err != nil {
			return nil, err
		}
		slog.Info("restoring agent", "path", store.Location(artifacts.AgentFile), "kind", kind)
		return agent.Restore(kind, s, cfgFile, opts)
	}

	slog.Info("creating agent", "kind", kind)
	return agent.NewFromConfig(kind, cfg, opts)
}

// historyPreview bounds each turn printed by the shell's history command.
const historyPreview = 100

type batchResult struct {
	Input   string           `json:"input"`
	Output  string           `json:"output"`
	Usage   generators.Usage `json:"usage"`
	CostUSD float64          `json:"cost_usd,omitempty"`
}

// promptMessages returns what a sends to answer input. For a
// conversational agent that is the full assembled conversation, so it must
// be called before Process records the turn.
func promptMessages(a agent.Agent, input string) []generators.Message {
	if c, ok := a.(*agent.Conversational); ok {
		return c.Messages(input, "")
	}
	return []generators.Message{{Role: generators.RoleUser, Content: input}}
}

// runBatch answers every non-empty line of inputPath and optionally writes
// the results as JSON to outputPath.
func runBatch(ctx context.Context, a agent.Agent, inputPath, outputPath string, out io.Writer) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	model := a.Config().ModelName()
	c, ok := a.(*agent.Conversational)
	priced := ok && c.Ready()

	fmt.Fprintf(out, "Processing %d lines...\n\n", len(lines))
	results := make([]batchResult, 0, len(lines))
	var (
		total     generators.Usage
		totalCost float64
		costKnown bool
	)
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		prompt := promptMessages(a, line)
		reply := a.Process(ctx, line)
		fmt.Fprintf(out, "[%d] %s\n    %s\n\n", i+1, line, reply)

		r := batchResult{Input: line, Output: reply, Usage: generators.EstimateUsage(prompt, reply)}
		if priced {
			if cost, ok := generators.EstimateCost(model, r.Usage); ok {
				r.CostUSD = cost
				totalCost += cost
				costKnown = true
			}
		}
		total = total.Add(r.Usage)
		results = append(results, r)
	}

	fmt.Fprintf(out, "Estimated usage: %d prompt tokens, %d generated tokens\n", total.PromptTokenCount, total.GeneratedTokenCount)
	switch {
	case costKnown:
		fmt.Fprintf(out, "Estimated cost: $%.4f (%s)\n", totalCost, model)
	case priced:
		slog.Debug("no price known for model", "model", model)
	}

	if outputPath != "" {
		if err := cli.Output(results, cli.OutputOptions{Format: cli.FormatJSON, File: outputPath}); err != nil {
			return err
		}
		slog.Info("results saved", "path", outputPath)
	}
	cli.PrintSuccess("processed %d inputs", len(results))
	return nil
}

// runShell reads questions from in until EOF or an exit word.
func runShell(ctx context.Context, a agent.Agent, in io.Reader, out io.Writer) error {
	styles := cli.NewStyles(cli.DefaultTheme)
	fmt.Fprintln(out, styles.Banner(
		fmt.Sprintf("%s v%s", a.Name(), a.Version()),
		"Interactive mode",
		"Type 'exit' or 'quit' to leave",
		"Type 'history' to show the conversation",
		"Type 'clear' to clear the history",
	))
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, styles.Prompt("You"))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit", "salir":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "history":
			printHistory(out, a.History(0))
			continue
		case "clear":
			a.ClearHistory()
			fmt.Fprintln(out, "History cleared.")
			fmt.Fprintln(out)
			continue
		}

		fmt.Fprintf(out, "Agent: %s\n\n", a.Process(ctx, line))
	}
	return scanner.Err()
}

func printHistory(out io.Writer, history []agent.Interaction) {
	if len(history) == 0 {
		fmt.Fprintln(out, "No history yet.")
		fmt.Fprintln(out)
		return
	}
	fmt.Fprintln(out, "Conversation history:")
	for i, it := range history {
		fmt.Fprintf(out, "\n[%d] %s\n", i+1, it.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(out, "  You: %s\n", cli.Truncate(it.User, historyPreview))
		fmt.Fprintf(out, "  Agent: %s\n", cli.Truncate(it.Agent, historyPreview))
	}
	fmt.Fprintln(out)
}
