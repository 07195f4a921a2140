package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/repo-context/internal/bundle"
)

var (
	showTree   bool
	showBundle bool
)

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [route]",
		Short: "Fetch a repository and print the automatic selection without TUI",
		Long: `Show fetches the repository once and prints every file with its category,
size and selection mark.
Without arguments: no route, only important files are selected
With a route: the matching page and its imports are selected as well`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShow,
	}
	cmd.Flags().BoolVar(&showTree, "tree", false, "Print a directory tree instead of a table")
	cmd.Flags().BoolVar(&showBundle, "bundle", false, "Print the assembled bundle of the selection")
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "Extra seed file paths")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	opts := a.sessionOptions()
	if len(args) == 1 {
		opts.Route = args[0]
	}
	opts.Seeds = seeds

	s, err := a.fetchSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	snap := s.Snapshot()
	selection := s.Selection().Visible()
	state := s.State()
	out := cmd.OutOrStdout()

	switch {
	case showBundle:
		fmt.Fprint(out, bundle.Assemble("", snap, selection))
	case showTree:
		fmt.Fprintln(out, bundle.Tree(snap, selection, state.Highlight))
	default:
		fmt.Fprintln(out, bundle.Table(snap, selection, state.Highlight))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s selected\n", bundle.Summary(snap, selection))
	return nil
}
