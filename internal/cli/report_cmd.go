package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexanderramin/jess/internal/cli/formatter"
	"github.com/alexanderramin/jess/internal/export"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"reports"},
		Short:   "Draft, resume and manage EHC assessment reports",
	}
	cmd.AddCommand(
		newReportNewCmd(app),
		newReportResumeCmd(app),
		newReportListCmd(app),
		newReportShowCmd(app),
		newReportExportCmd(app),
		newReportDeleteCmd(app),
	)
	return cmd
}

// addOutputFlags registers --out/--format for commands that write an export.
func addOutputFlags(cmd *cobra.Command, out *string, format *formatFlag) {
	cmd.Flags().StringVarP(out, "out", "o", "", "write the report to this file or directory ('-' for stdout)")
	cmd.Flags().VarP(format, "format", "f", "export format: md, rtf, html or txt")
}

func newReportNewCmd(app *App) *cobra.Command {
	var out string
	format := formatFlag{format: export.FormatRTF}
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start the report wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.interactive() {
				return errNotInteractive
			}
			return runWizard(cmd, app, app.NewEngine(), wizardOutput{path: out, format: format.format})
		},
	}
	addOutputFlags(cmd, &out, &format)
	return cmd
}

func newReportResumeCmd(app *App) *cobra.Command {
	var out string
	format := formatFlag{format: export.FormatRTF}
	cmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Continue a saved report from the section it was saved at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errNotInteractive
			}
			e := app.NewEngine()
			if err := e.Resume(cmd.Context(), args[0]); err != nil {
				return err
			}
			if e.Record().Completed {
				fmt.Fprintf(cmd.OutOrStdout(), "Report %s is already complete. Export it with %s\n",
					args[0], formatter.Bold("jess report export "+args[0]))
				return nil
			}
			return runWizard(cmd, app, e, wizardOutput{path: out, format: format.format})
		},
	}
	addOutputFlags(cmd, &out, &format)
	return cmd
}

func newReportListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := app.Reports.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatReportList(list, app.now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultListLimit, "maximum number of reports")
	return cmd
}

func newReportShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the notes stored for a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Reports.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecord(rec, app.NewEngine().Stages()))
			return nil
		},
	}
}

func newReportExportCmd(app *App) *cobra.Command {
	var out string
	format := formatFlag{format: export.FormatRTF}
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Regenerate a completed report and write it as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := formatter.StartSpinner(cmd.ErrOrStderr(), app.interactive(), "Writing the report...")
			res, err := app.Reports.Export(cmd.Context(), args[0], format.format)
			stop()
			if err != nil {
				return err
			}
			if out == "" {
				out = "."
			}
			return writeExport(cmd, res, out)
		},
	}
	addOutputFlags(cmd, &out, &format)
	return cmd
}

func newReportDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored reports",
		Long:  "Delete one or more stored reports. Several ids are removed together or not at all.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.interactive() {
					return errors.New("refusing to delete without --yes")
				}
				ok, err := confirmDelete(cmd, args)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Kept."))
					return nil
				}
			}

			if len(args) > 1 {
				if err := app.Reports.DeleteAll(cmd.Context(), args); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d reports.\n", len(args))
				return nil
			}

			id := args[0]
			removed, err := app.Reports.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No report with id %s.\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirmDelete(cmd *cobra.Command, ids []string) (bool, error) {
	title := fmt.Sprintf("Delete report %s?", ids[0])
	if len(ids) > 1 {
		title = fmt.Sprintf("Delete %d reports?", len(ids))
	}
	confirmed := false
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Delete").
			Negative("Keep").
			Value(&confirmed),
	)).WithTheme(jessHuhTheme()).WithShowHelp(false).RunWithContext(cmd.Context())
	if err != nil && !errors.Is(err, huh.ErrUserAborted) {
		return false, err
	}
	return confirmed, nil
}

// writeExport writes res to path. A directory receives the export's default
// filename; "-" writes to stdout.
func writeExport(cmd *cobra.Command, res *service.ExportResult, path string) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(res.Data)
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, res.Filename)
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
