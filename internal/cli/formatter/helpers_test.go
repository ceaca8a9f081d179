package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanTimestamp(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"just now", now.Add(-10 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"yesterday", now.Add(-26 * time.Hour), "Yesterday"},
		{"older", time.Date(2022, 9, 30, 0, 0, 0, 0, time.UTC), "Sep 30, 2022"},
		{"future same day", now.Add(time.Hour), "Today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanTimestamp(tt.input, now))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a b c", Truncate("a\n b   c", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "ééé…", Truncate("éééééé", 4))
}

func TestRenderBox(t *testing.T) {
	result := RenderBox("notes", "content here")
	assert.Contains(t, result, "NOTES")
	assert.Contains(t, result, "content here")
	assert.Contains(t, result, "╭")
	assert.Contains(t, result, "╰")

	assert.NotContains(t, RenderBox("", "just content"), "NOTES")
}

func TestRenderStageProgress(t *testing.T) {
	assert.Contains(t, RenderStageProgress(2, 8, 8), "██░░░░░░")
	assert.Contains(t, RenderStageProgress(2, 8, 8), "2/8")
	assert.Contains(t, RenderStageProgress(9, 8, 4), "████")
	assert.Contains(t, RenderStageProgress(-1, 8, 4), "0/8")
	assert.Contains(t, RenderStageProgress(1, 0, 1), "1/1")
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, RenderTable(nil, nil))

	out := RenderTable([]string{"ID", "CHILD"}, [][]string{
		{"1a2b3c4d", "A.B."},
		{"x", "Longer Name"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "CHILD")
	assert.Contains(t, lines[1], "────────")
	assert.Equal(t, lipgloss.Width(lines[2]), lipgloss.Width(lines[0])-lipgloss.Width("CHILD")+lipgloss.Width("A.B."))
	assert.Equal(t, strings.Index(lines[2], "A.B."), strings.Index(lines[3], "Longer"))
}

func TestFormatReportList(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, FormatReportList(nil, now), "No saved reports")

	out := FormatReportList([]domain.RecordSummary{
		{ID: "1a2b3c4d", Kind: domain.KindEHCAssessment, SubjectName: "A.B.", UpdatedAt: now.Add(-2 * time.Hour), Completed: true},
		{ID: "99aa88bb", Kind: domain.KindEHCAssessment, SubjectName: "C.D.", UpdatedAt: now.Add(-30 * time.Second)},
	}, now)
	assert.Contains(t, out, "RECENT REPORTS")
	assert.Contains(t, out, "1a2b3c4d")
	assert.Contains(t, out, "EHC Assessment Report")
	assert.Contains(t, out, "✔ Report")
	assert.Contains(t, out, "○ Draft")
	assert.Contains(t, out, "2h ago")
	assert.Contains(t, out, "Just now")
}

func TestFormatRecord(t *testing.T) {
	rec := &domain.CaseRecord{
		ID:           "1a2b3c4d",
		Kind:         domain.KindEHCAssessment,
		SubjectName:  "A.B.",
		CurrentStage: 1,
		Fields: map[string]string{
			"child_name":      "A.B.",
			"referral_reason": "reading difficulty",
		},
	}
	out := FormatRecord(rec, workflow.DefaultStages())
	assert.Contains(t, out, "Saved at section 2 of 8")
	assert.Contains(t, out, "Child Information & Referral")
	assert.Contains(t, out, "Referral Reason:")
	assert.Contains(t, out, "reading difficulty")
	assert.NotContains(t, out, "Background & History")

	rec.Completed = true
	assert.NotContains(t, FormatRecord(rec, workflow.DefaultStages()), "Saved at section")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("## Summary\n\nReads **well**.", MarkdownPlain, 60)
	require.NoError(t, err)
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Reads")
	assert.Contains(t, out, "well")
}

func TestModeBadge(t *testing.T) {
	assert.Contains(t, ModeBadge(domain.ModeDual), "DUAL")
	assert.Contains(t, ModeBadge(domain.ModeSimple), "SIMPLE")
}
