// Package cli provides terminal helpers shared by the agentkit commands.
//
// This package includes:
//   - Output formatting (JSON, YAML, raw)
//   - Status line helpers (success, info, warning, error)
//   - Styles and the banner of the interactive shell
//
// Example usage:
//
//	cli.Output(records, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
