package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/repo-context/internal/bundle"
	"github.com/strrl/repo-context/internal/llm"
)

// newLLMClient builds the completion client; tests replace it.
var newLLMClient = func(a *app, cmd *cobra.Command) (llm.Client, error) {
	return llm.NewGemini(cmd.Context(), a.cfg.LLM.APIKey, a.cfg.LLM.Model)
}

// NewAskCommand creates the ask command
func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Send a question with the automatic selection as context to Gemini",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	f := cmd.Flags()
	f.StringVar(&route, "route", "", "Route whose page file seeds the selection")
	f.StringSliceVar(&seeds, "seed", nil, "Extra seed file paths")
	f.StringVar(&taskPath, "task-path", "", "Use a single target file as the context")
	f.StringVar(&taskKind, "task-kind", "error-fix", "Single-file task kind")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	opts, err := targetOptions(a.sessionOptions())
	if err != nil {
		return err
	}
	s, err := a.fetchSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	client, err := newLLMClient(a, cmd)
	if err != nil {
		return err
	}

	selection := s.Selection().Visible()
	prompt := bundle.Assemble(strings.Join(args, " "), s.Snapshot(), selection)
	a.logger.Info("asking", "model", client.Name(), "count", len(selection))

	answer, err := llm.Ask(cmd.Context(), client, prompt, a.logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
