package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thellimist/specmcp/internal/app"
	"github.com/thellimist/specmcp/internal/logging"
)

var listDocFlags documentFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the tools a document compiles to",
	Long: `Load an OpenAPI document and print one line per tool, followed by any
operations that were skipped and why.`,
	RunE: runList,
}

func init() {
	listDocFlags.register(listCmd.Flags())
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &listDocFlags, nil, nil)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	doc, tools, err := app.Compile(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (OpenAPI %s): %d tools\n\n", doc.Title, doc.Version, doc.OpenAPI, len(tools))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tMETHOD\tPATH\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Operation.Method, t.Operation.Path, truncate(t.Description, 72))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(doc.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped %d operations:\n", len(doc.Skipped))
		for _, s := range doc.Skipped {
			fmt.Fprintf(out, "  - %s %s: %s\n", s.Method, s.Path, s.Reason)
		}
	}
	return nil
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
