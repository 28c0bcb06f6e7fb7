package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pharmassist/pharmassist/internal/config"
	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and run the registered tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tool schemas",
	RunE:  runToolsList,
}

var toolsRunCmd = &cobra.Command{
	Use:   "run <name> [json-arguments]",
	Short: "Execute one tool with the given arguments",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runToolsRun,
}

var toolsRunLang string

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsRunCmd)
	toolsRunCmd.Flags().StringVar(&toolsRunLang, "lang", "en", "Response language (en, he, ru, ar)")
}

func toolsRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildRuntime(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func runToolsList(cmd *cobra.Command, args []string) error {
	rt, err := toolsRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, spec := range rt.registry.Specs() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", spec.Name, spec.Description)
		params, _ := json.MarshalIndent(spec.Schema, "  ", "  ")
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n\n", params)
	}
	return nil
}

func runToolsRun(cmd *cobra.Command, args []string) error {
	rt, err := toolsRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	argsText := "{}"
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("arguments must be a JSON object")
		}
		argsText = args[1]
	}

	lang := toolsRunLang
	if !i18n.Supported(lang) {
		lang = "en"
	}
	rctx := tools.RequestContext{Language: lang}

	pending := tools.PendingCall{ID: "cli", Name: args[0], ArgsText: argsText}
	resolved, failure := rt.registry.Resolve(pending, rctx)

	var outcome tools.Outcome
	if failure != nil {
		outcome = rt.executor.FailureOutcome(pending, failure, lang)
	} else {
		outcome = rt.executor.Execute(cmd.Context(), resolved, rctx)
	}

	var pretty map[string]any
	if err := json.Unmarshal([]byte(outcome.Content()), &pretty); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), outcome.Content())
		return nil
	}
	rendered, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(rendered))
	return nil
}
