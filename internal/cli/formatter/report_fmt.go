package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// Markdown styles accepted by RenderMarkdown.
const (
	MarkdownDark  = styles.DarkStyle
	MarkdownPlain = styles.NoTTYStyle
)

// RenderMarkdown renders md for the terminal, wrapped at width columns.
func RenderMarkdown(md, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// FormatReportList renders stored records, most recent first.
func FormatReportList(list []domain.RecordSummary, now time.Time) string {
	if len(list) == 0 {
		return Dim("No saved reports. Start one with 'jess report new'.")
	}
	rows := make([][]string, len(list))
	for i, r := range list {
		rows[i] = []string{
			StyleBlue.Render(r.ID),
			Truncate(r.SubjectName, 24),
			r.Kind.Label(),
			StatusPill(r.Completed),
			HumanTimestamp(r.UpdatedAt, now),
		}
	}
	return Header("Recent reports") + "\n" +
		RenderTable([]string{"ID", "CHILD", "TYPE", "STATUS", "UPDATED"}, rows)
}

// FormatRecord lists the record's notes grouped by wizard section.
func FormatRecord(rec *domain.CaseRecord, stages *workflow.StageSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n", Bold(rec.SubjectName), StyleBlue.Render(rec.ID), StatusPill(rec.Completed))
	if !rec.Completed {
		fmt.Fprintf(&b, "%s\n", Dim(fmt.Sprintf("Saved at section %d of %d", rec.CurrentStage+1, stages.Count())))
	}

	for i := range stages.Count() {
		stage := stages.At(i)
		var lines []string
		for _, f := range stage.Fields {
			v := strings.TrimSpace(rec.Fields[f.Key])
			if v == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s %s", StyleDim.Render(f.ReportLabel()+":"), Truncate(v, 72)))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n%s\n", StyleHeader.Render(stage.Title), strings.Join(lines, "\n"))
	}
	return b.String()
}

// FormatWizardHeader is shown above each wizard form.
func FormatWizardHeader(e *workflow.Engine) string {
	bar := RenderStageProgress(e.StageIndex()+1, e.Stages().Count(), 24)
	header := Header(e.Record().Kind.Label()) + "\n" + bar + "  " + Dim(e.Progress())
	if id := e.RecordID(); id != "" {
		header += "\n" + Dim("Record "+id)
	}
	return header
}
