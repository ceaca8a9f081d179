// Package cli implements the jess command line: the chat view, the report
// wizard, report administration and the HTTP server command.
package cli

import (
	"time"

	"github.com/alexanderramin/jess/internal/cli/formatter"
	"github.com/alexanderramin/jess/internal/composer"
	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/httpapi"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the collaborators the commands are built from.
type App struct {
	Composer  *composer.Composer
	Reports   service.ReportService
	NewEngine service.EngineFactory

	// NewServer builds the HTTP API for 'jess serve'. Nil disables the command.
	NewServer func() *httpapi.Server
	HTTPAddr  string

	DefaultMode domain.ResponseMode
	Logger      *zap.Logger

	// IsInteractive reports whether stdin is a terminal. Interactive-only
	// commands refuse to start without one.
	IsInteractive func() bool
	Now           func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *App) markdownStyle() string {
	if a.interactive() {
		return formatter.MarkdownDark
	}
	return formatter.MarkdownPlain
}

// NewRootCmd creates the top-level "jess" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "jess",
		Short:         "Assistant for educational psychologists: chat and EHC report drafting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newChatCmd(app),
		newReportCmd(app),
	)
	if app.NewServer != nil {
		root.AddCommand(newServeCmd(app))
	}
	return root
}
