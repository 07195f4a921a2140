package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/strrl/repo-context/internal/deps"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <source-path> [specifier...]",
		Short: "Resolve import specifiers of a file against the repository",
		Long: `Resolve looks up import specifiers as seen from source-path.
Without specifiers: every import found in source-path is resolved`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := a.snapshot(cmd.Context())
	if err != nil {
		return err
	}

	source := args[0]
	specifiers := args[1:]
	if len(specifiers) == 0 {
		f, ok := snap.File(source)
		if !ok {
			return fmt.Errorf("file %q not found in %s", source, a.cfg.Repo.URL)
		}
		specifiers = deps.ExtractSorted(f.Content)
	}

	idx := deps.NewIndex(snap.Paths())
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Specifier", "Resolved", "Category"})

	misses := 0
	for _, spec := range specifiers {
		resolved, ok := deps.Resolve(spec, source, idx)
		if !ok {
			misses++
			t.AppendRow(table.Row{spec, "-", "-"})
			continue
		}
		t.AppendRow(table.Row{spec, resolved, deps.Classify(resolved)})
	}
	a.metrics.ResolutionMisses(misses)
	t.AppendFooter(table.Row{fmt.Sprintf("%d imports", len(specifiers)), fmt.Sprintf("%d unresolved", misses), ""})

	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
