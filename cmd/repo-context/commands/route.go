package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/repo-context/internal/routes"
)

// NewRouteCommand creates the route command
func NewRouteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "route <route>",
		Short: "Print the page file that renders a route",
		Args:  cobra.ExactArgs(1),
		RunE:  runRoute,
	}
}

func runRoute(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	snap, err := a.snapshot(cmd.Context())
	if err != nil {
		return err
	}

	page, ok := routes.Match(args[0], snap.Paths())
	if !ok {
		a.metrics.RouteMiss()
		return fmt.Errorf("no page file found for %s", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), page)
	return nil
}
