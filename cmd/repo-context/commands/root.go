package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/repo-context/internal/bundle"
	"github.com/strrl/repo-context/internal/sessions"
	"github.com/strrl/repo-context/internal/tui"
	"github.com/strrl/repo-context/pkg/models"
)

// Flags of the interactive root command
var (
	route       string
	seeds       []string
	taskPath    string
	taskKind    string
	request     string
	metricsAddr string
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repo-context",
		Short: "Pick the files of a repository that matter for a task",
		Long: `repo-context fetches a repository, finds the page behind a route and the
files it imports, and lets you refine the selection before printing it as a
code context bundle.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./repo-context.yaml)")
	pf.StringVar(&repoURL, "repo", "", "GitHub URL, owner/repo, or local directory")
	pf.StringVar(&branch, "branch", "", "Branch to fetch (default branch when empty)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	f := rootCmd.Flags()
	f.StringVar(&route, "route", "", "Route whose page file seeds the selection, e.g. /users/42")
	f.StringSliceVar(&seeds, "seed", nil, "Extra seed file paths")
	f.StringVar(&taskPath, "task-path", "", "Fetch a single target file and lock the selection")
	f.StringVar(&taskKind, "task-kind", string(models.TaskErrorFix), "Single-file task kind: image-replace, icon-replace, error-fix, idea")
	f.StringVar(&request, "request", "", "Task text printed above the bundle")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")

	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewRouteCommand())
	rootCmd.AddCommand(NewGraphCommand())
	rootCmd.AddCommand(NewAskCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	a, err := loadApp()
	if err != nil {
		return err
	}
	if metricsAddr == "" {
		metricsAddr = a.cfg.Metrics.Addr
	}
	stop := a.serveMetrics(metricsAddr)
	defer stop()

	opts, err := targetOptions(a.sessionOptions())
	if err != nil {
		return err
	}
	collector := bundle.NewCollector(nil)
	opts.Consumer = collector

	s, err := sessions.New(a.provider, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := tui.Run(ctx, s, a.cfg.Selection.ImportantFiles)
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	fetches, publishes := collector.Counts()
	a.logger.Debug("picker closed", "confirmed", res.Confirmed, "fetches", fetches, "publishes", publishes)

	if !res.Confirmed {
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), bundle.Assemble(request, s.Snapshot(), res.Selection))
	return nil
}

// targetOptions applies the route, seed and task flags to opts
func targetOptions(opts sessions.Options) (sessions.Options, error) {
	opts.Route = route
	opts.Seeds = seeds
	if taskPath == "" {
		return opts, nil
	}
	kind, err := parseTaskKind(taskKind)
	if err != nil {
		return opts, err
	}
	opts.Task = &models.SingleFileTask{TargetPath: strings.TrimPrefix(taskPath, "/"), Kind: kind}
	return opts, nil
}

func parseTaskKind(s string) (models.TaskKind, error) {
	switch k := models.TaskKind(strings.ToLower(strings.TrimSpace(s))); k {
	case models.TaskImageReplace, models.TaskIconReplace, models.TaskErrorFix, models.TaskIdea:
		return k, nil
	default:
		return "", fmt.Errorf("unknown task kind %q", s)
	}
}
