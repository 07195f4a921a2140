package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/repo-context/internal/deps"
	"github.com/strrl/repo-context/internal/routes"
)

var graphRoute string

// NewGraphCommand creates the graph command
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [seed...]",
		Short: "Print the one-hop dependency graph of seed files as Graphviz DOT",
		RunE:  runGraph,
	}
	cmd.Flags().StringVar(&graphRoute, "route", "", "Add the page file of this route as a seed")
	return cmd
}

func runGraph(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := a.snapshot(cmd.Context())
	if err != nil {
		return err
	}

	seedPaths := append([]string(nil), args...)
	if graphRoute != "" {
		page, ok := routes.Match(graphRoute, snap.Paths())
		if !ok {
			a.metrics.RouteMiss()
			return fmt.Errorf("no page file found for %s", graphRoute)
		}
		seedPaths = append([]string{page}, seedPaths...)
	}
	if len(seedPaths) == 0 {
		return errors.New("pass at least one seed or --route")
	}

	closure := deps.BuildClosure(seedPaths, snap)
	for _, miss := range closure.Unresolved {
		a.logger.Debug("unresolved import", "path", miss.Source, "specifier", miss.Specifier)
	}
	a.metrics.ResolutionMisses(len(closure.Unresolved))
	return closure.WriteDOT(cmd.OutOrStdout())
}
