package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rill-lang/rill/internal/cli/config"
	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/value"
	"github.com/rill-lang/rill/pkg/rill"
)

var (
	runVars        []string
	runNoPrompt    bool
	runTimeoutMs   int
	runShowResult  bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Parse and execute a script",
	Long: `Run parses a script, prompts for any frontmatter-declared variables
not supplied with --var, executes it, and reports its final value along
with the process exit code §6.4 derives from that value.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "bind a variable as name=value (repeatable)")
	runCmd.Flags().BoolVar(&runNoPrompt, "no-prompt", false, "fail instead of prompting for missing frontmatter variables")
	runCmd.Flags().IntVar(&runTimeoutMs, "timeout", 0, "per-invocation timeout in milliseconds (0 = use rill.yml's timeout.ms)")
	runCmd.Flags().BoolVar(&runShowResult, "print", true, "print the script's final value")
}

func runRun(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	result := rill.ParseWithRecovery(string(source))
	if !result.Success {
		errColor := color.New(color.FgRed, color.Bold)
		for _, pe := range result.Errors {
			errColor.Fprintf(os.Stderr, "✗ %s\n", pe.Error())
		}
		return fmt.Errorf("%d syntax error(s) in %s", len(result.Errors), args[0])
	}
	script := result.AST

	vars, err := collectVariables(script, runVars, runNoPrompt)
	if err != nil {
		return err
	}

	cfg, _ := config.Load()
	timeout := time.Duration(runTimeoutMs) * time.Millisecond
	if timeout == 0 && cfg != nil {
		timeout = time.Duration(cfg.Timeout.Ms) * time.Millisecond
	}

	ctx := rill.CreateContext(rill.Options{
		Variables:      vars,
		AutoExceptions: autoExceptionPatterns(cfg),
		Timeout:        timeout,
	})

	res, err := rill.Execute(script, ctx)
	if err != nil {
		return reportExecutionError(err)
	}

	if runShowResult {
		fmt.Println(res.Value.String())
	}

	code, message := rill.ExitCode(res.Value)
	if message != "" {
		fmt.Println(message)
	}
	os.Exit(code)
	return nil
}

func autoExceptionPatterns(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	return cfg.AutoExceptions.Patterns
}

func reportExecutionError(err error) error {
	if re, ok := rill.AsStructuredError(err); ok {
		errColor := color.New(color.FgRed, color.Bold)
		errColor.Fprintf(os.Stderr, "✗ %s [%s]\n", re.Error(), re.ID)
		fmt.Fprintf(os.Stderr, "  %s\n", re.HelpURL())
		return fmt.Errorf("execution failed")
	}
	return err
}

// frontmatterVar is one declaration parsed out of a script's opaque
// frontmatter block: "name: description" or "name: description = default".
type frontmatterVar struct {
	Name        string
	Description string
	Default     string
	HasDefault  bool
}

func parseFrontmatterVars(raw string) []frontmatterVar {
	var decls []frontmatterVar
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)

		decl := frontmatterVar{Name: name, Description: rest}
		if desc, def, ok := strings.Cut(rest, "="); ok {
			decl.Description = strings.TrimSpace(desc)
			decl.Default = strings.TrimSpace(def)
			decl.HasDefault = true
		}
		decls = append(decls, decl)
	}
	return decls
}

func collectVariables(script *ast.Script, cliVars []string, noPrompt bool) (map[string]value.Value, error) {
	bound := map[string]value.Value{}
	for _, kv := range cliVars {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", kv)
		}
		bound[name] = value.String(val)
	}

	if script.Frontmatter == nil {
		return bound, nil
	}

	for _, decl := range parseFrontmatterVars(script.Frontmatter.Raw) {
		if _, ok := bound[decl.Name]; ok {
			continue
		}
		if noPrompt {
			if decl.HasDefault {
				bound[decl.Name] = value.String(decl.Default)
				continue
			}
			return nil, fmt.Errorf("missing required variable %q (declared in frontmatter)", decl.Name)
		}

		var answer string
		prompt := &survey.Input{Message: promptMessage(decl), Default: decl.Default}
		if err := survey.AskOne(prompt, &answer); err != nil {
			return nil, err
		}
		bound[decl.Name] = value.String(answer)
	}

	return bound, nil
}

func promptMessage(decl frontmatterVar) string {
	if decl.Description != "" {
		return fmt.Sprintf("%s (%s):", decl.Name, decl.Description)
	}
	return decl.Name + ":"
}
