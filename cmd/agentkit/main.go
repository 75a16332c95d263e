// Package main is the entry point for the agentkit CLI.
//
// Usage:
//
//	agentkit [flags] <command> [subcommand] [args]
//
// Commands:
//
//	train      - Train an agent on a local corpus and save the result
//	infer      - Query a trained agent (interactive, single query or batch)
//	data       - Corpus utilities (init, prepare, split)
//	registry   - Inspect trained agents recorded in a registry
//	config     - Show the agent configuration or its JSON Schema
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/agentkit/cmd/agentkit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
