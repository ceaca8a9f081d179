package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/jess/internal/cli/formatter"
	"github.com/alexanderramin/jess/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var errNotInteractive = errors.New("this command needs an interactive terminal")

func newChatCmd(app *App) *cobra.Command {
	var (
		mode    modeFlag
		message string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Jess",
		Long: "Start an interactive chat. In dual mode each answer is a factual reply\n" +
			"followed by a short engagement pass that may add one follow-up question.",
		Example: "  jess chat --mode dual\n  jess chat -q \"What is precision teaching?\"",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode.mode == "" {
				mode.mode = app.DefaultMode
			}
			if mode.mode == "" {
				mode.mode = domain.ModeSimple
			}
			if message != "" {
				return runChatOnce(cmd, app, message, mode.mode)
			}
			if !app.interactive() {
				return fmt.Errorf("%w: use --message for a single question", errNotInteractive)
			}
			view := newChatView(cmd.Context(), app.Composer, mode.mode, app.markdownStyle())
			_, err := tea.NewProgram(view, tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrInterrupted) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().VarP(&mode, "mode", "m", "response mode: simple or dual")
	cmd.Flags().StringVarP(&message, "message", "q", "", "ask a single question and print the answer")
	return cmd
}

func runChatOnce(cmd *cobra.Command, app *App, message string, mode domain.ResponseMode) error {
	stop := formatter.StartSpinner(cmd.ErrOrStderr(), app.interactive(), "Thinking...")
	reply, _, err := app.Composer.Respond(cmd.Context(), message, domain.ConversationState{}, mode)
	stop()
	if err != nil {
		return err
	}

	text, err := formatter.RenderMarkdown(reply.Text, app.markdownStyle(), 80)
	if err != nil {
		text = reply.Text
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	if reply.Degraded {
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim("(showing the factual answer only; the follow-up pass failed)"))
	}
	return nil
}
