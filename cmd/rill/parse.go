package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rill-lang/rill/internal/rill/parser"
	"github.com/rill-lang/rill/pkg/rill"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a script and report syntax errors",
	Long: `Parse reads a script with error recovery (§4.2.4): rather than
stopping at the first syntax error, it resynchronizes to the next
statement and keeps collecting errors, so a single run reports every
problem in the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "emit machine-readable JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	result := rill.ParseWithRecovery(string(source))

	if parseJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"success":    result.Success,
			"statements": len(result.AST.Statements),
			"errors":     parseErrorsJSON(result.Errors),
		})
	}

	if result.Success {
		color.New(color.FgGreen, color.Bold).Printf("✓ parsed %s (%d statements)\n", args[0], len(result.AST.Statements))
		return nil
	}

	errColor := color.New(color.FgRed, color.Bold)
	for _, pe := range result.Errors {
		errColor.Fprintf(os.Stderr, "✗ %s\n", pe.Error())
	}
	return fmt.Errorf("%d syntax error(s) in %s", len(result.Errors), args[0])
}

func parseErrorsJSON(errs []*parser.ParseError) []map[string]interface{} {
	out := make([]map[string]interface{}, len(errs))
	for i, e := range errs {
		out[i] = map[string]interface{}{
			"message": e.Message,
			"line":    e.Loc.Line,
			"column":  e.Loc.Column,
		}
	}
	return out
}
