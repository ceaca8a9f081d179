package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/jess/internal/cli/formatter"
	"github.com/alexanderramin/jess/internal/export"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// jessHuhTheme returns a huh theme using the formatter palette.
func jessHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.NoteTitle = lipgloss.NewStyle().Foreground(formatter.ColorPurple).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// wizardAction is the button chosen at the bottom of a stage form.
type wizardAction string

const (
	actionNext     wizardAction = "next"
	actionPrevious wizardAction = "previous"
	actionSave     wizardAction = "save"
	actionGenerate wizardAction = "generate"
)

// actionOptions lists the buttons available on the engine's current stage.
func actionOptions(e *workflow.Engine) []huh.Option[wizardAction] {
	var opts []huh.Option[wizardAction]
	if e.StageIndex() == e.Stages().Last() {
		opts = append(opts, huh.NewOption("Generate report", actionGenerate))
	} else {
		opts = append(opts, huh.NewOption("Next section", actionNext))
	}
	if e.StageIndex() > 0 {
		opts = append(opts, huh.NewOption("Previous section", actionPrevious))
	}
	return append(opts, huh.NewOption("Save & exit", actionSave))
}

// stageForm is one wizard page: the stage's inputs prefilled from the
// record, plus the action select.
type stageForm struct {
	keys   []string
	values map[string]*string
	action wizardAction
	form   *huh.Form
}

func newStageForm(e *workflow.Engine) *stageForm {
	stage := e.CurrentStage()
	rec := e.Record()
	opts := actionOptions(e)

	sf := &stageForm{
		values: make(map[string]*string, len(stage.Fields)),
		action: opts[0].Value,
	}

	fields := make([]huh.Field, 0, len(stage.Fields)+2)
	if stage.Intro != "" {
		fields = append(fields, huh.NewNote().Title(stage.Title).Description(stage.Intro))
	}
	for _, f := range stage.Fields {
		value := rec.Fields[f.Key]
		sf.keys = append(sf.keys, f.Key)
		sf.values[f.Key] = &value
		if f.Multiline {
			fields = append(fields, huh.NewText().
				Title(f.Prompt).
				Description(f.Help).
				CharLimit(workflow.MaxFieldLength).
				Value(&value))
			continue
		}
		fields = append(fields, huh.NewInput().
			Title(f.Prompt).
			Description(f.Help).
			CharLimit(workflow.MaxFieldLength).
			Value(&value))
	}
	fields = append(fields, huh.NewSelect[wizardAction]().
		Title("What next?").
		Options(opts...).
		Value(&sf.action))

	sf.form = huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(jessHuhTheme()).
		WithShowHelp(false)
	return sf
}

// Values returns the answers entered on the page.
func (sf *stageForm) Values() map[string]string {
	out := make(map[string]string, len(sf.keys))
	for _, k := range sf.keys {
		out[k] = *sf.values[k]
	}
	return out
}

// stepResult is what one applied action produced.
type stepResult struct {
	savedID  string
	document string
}

func (r stepResult) done() bool { return r.savedID != "" || r.document != "" }

// applyAction runs the engine transition behind a wizard button.
// Previous discards answers typed on the current page.
func applyAction(ctx context.Context, e *workflow.Engine, action wizardAction, values map[string]string) (stepResult, error) {
	switch action {
	case actionNext:
		if err := e.Advance(ctx, values); err != nil {
			return stepResult{}, err
		}
		if doc, ok := e.Document(); ok {
			return stepResult{document: doc}, nil
		}
		return stepResult{}, nil
	case actionPrevious:
		return stepResult{}, e.Retreat()
	case actionSave:
		id, err := e.SaveAndExit(ctx, values)
		return stepResult{savedID: id}, err
	case actionGenerate:
		doc, err := e.Finalize(ctx, values)
		return stepResult{document: doc}, err
	default:
		return stepResult{}, fmt.Errorf("%w: unknown action %q", workflow.ErrValidation, action)
	}
}

// wizardOutput is where a finished report is written, if anywhere.
type wizardOutput struct {
	path   string
	format export.Format
}

// runWizard shows stage forms until the user saves, generates or cancels.
func runWizard(cmd *cobra.Command, app *App, e *workflow.Engine, out wizardOutput) error {
	ctx := cmd.Context()
	w, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()

	for {
		fmt.Fprintln(w, formatter.FormatWizardHeader(e))
		sf := newStageForm(e)
		if err := sf.form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(w, formatter.Dim("Cancelled. Answers on this section were not saved."))
				return nil
			}
			return err
		}

		generating := sf.action == actionGenerate ||
			(sf.action == actionNext && e.StageIndex() == e.Stages().Last())
		stop := formatter.StartSpinner(errw, generating && app.interactive(), "Writing the report...")
		res, err := applyAction(ctx, e, sf.action, sf.Values())
		stop()
		if err != nil {
			fmt.Fprintln(errw, formatter.Error(err))
			if errors.Is(err, workflow.ErrCompleted) {
				return err
			}
			continue
		}

		switch {
		case res.savedID != "":
			fmt.Fprintf(w, "Saved. Resume later with %s\n", formatter.Bold("jess report resume "+res.savedID))
			return nil
		case res.document != "":
			return finishReport(cmd, app, e, res.document, out)
		}
	}
}

// finishReport prints the generated report and optionally writes an export.
func finishReport(cmd *cobra.Command, app *App, e *workflow.Engine, doc string, out wizardOutput) error {
	rec := e.Record()
	md, err := service.Render(rec, doc, export.FormatMarkdown)
	if err != nil {
		return err
	}
	rendered, err := formatter.RenderMarkdown(string(md.Data), app.markdownStyle(), 80)
	if err != nil {
		rendered = string(md.Data)
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)

	if err := workflow.CheckSections(doc); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim("Note: "+err.Error()))
	}

	if out.path != "" {
		res, err := service.Render(rec, doc, out.format)
		if err != nil {
			return err
		}
		if err := writeExport(cmd, res, out.path); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report %s saved. Export with %s\n",
		formatter.StyleBlue.Render(rec.ID), formatter.Bold("jess report export "+rec.ID+" --format rtf"))
	return nil
}
