package export

import (
	"strings"
	"testing"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `1. CHILD INFORMATION & REFERRAL DETAILS

A.B. is a nine year old pupil
referred for reading difficulty.

## Background

Lives with two siblings.

Key strengths:
Good verbal reasoning.

RECOMMENDATIONS`

func sampleDoc() Document {
	return Document{
		Kind:        domain.KindEHCAssessment,
		SubjectName: "A.B.",
		RecordID:    "1a2b3c4d",
		Body:        sampleBody,
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"RECOMMENDATIONS AND PROVISION", true},
		{"# Background", true},
		{"3. Cognitive findings", true},
		{"Key strengths:", true},
		{"A.B. is a nine year old pupil", false},
		{"12345", false},
		{"", false},
		{strings.Repeat("word ", 25) + ":", false},
		{"WISC-V scores were average", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeading(tt.line))
		})
	}
}

func TestBlocks(t *testing.T) {
	got := Blocks(sampleBody)
	want := []Block{
		{Heading, "1. CHILD INFORMATION & REFERRAL DETAILS"},
		{Paragraph, "A.B. is a nine year old pupil referred for reading difficulty."},
		{Heading, "Background"},
		{Paragraph, "Lives with two siblings."},
		{Heading, "Key strengths:"},
		{Paragraph, "Good verbal reasoning."},
		{Heading, "RECOMMENDATIONS"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Blocks mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, Blocks("\n\n  \n"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleDoc())

	assert.True(t, strings.HasPrefix(md, "# EHC Assessment Report\n\n**Child:** A.B.  \n**Report ID:** 1a2b3c4d\n"))
	assert.Contains(t, md, "\n## 1. CHILD INFORMATION & REFERRAL DETAILS\n")
	assert.Contains(t, md, "\nA.B. is a nine year old pupil referred for reading difficulty.\n")
	assert.Contains(t, md, "\n## Background\n")
	assert.NotContains(t, md, "## ## Background")
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleDoc())
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<h1>EHC Assessment Report</h1>")
	assert.Contains(t, html, "<strong>Child:</strong> A.B.")
	assert.Contains(t, html, "<h2>1. CHILD INFORMATION &amp; REFERRAL DETAILS</h2>")
	assert.Contains(t, html, "<p>Lives with two siblings.</p>")
}

func TestRTF(t *testing.T) {
	rtf := string(RTF(sampleDoc()))

	assert.True(t, strings.HasPrefix(rtf, `{\rtf1\ansi\deff0`))
	assert.True(t, strings.HasSuffix(rtf, "}"))
	assert.Contains(t, rtf, `\b\fs28 EHC Assessment Report\b0\fs24\par\par `)
	assert.Contains(t, rtf, `Child: A.B.\par `)
	assert.Contains(t, rtf, `Report ID: 1a2b3c4d\par\par `)
	assert.Contains(t, rtf, `\b Background\b0\par\par `)
	assert.Contains(t, rtf, `Lives with two siblings.\par\par `)
}

func TestRTFEscape(t *testing.T) {
	assert.Equal(t, `a\\b \{x\}`, rtfEscape(`a\b {x}`))
	assert.Equal(t, `caf\u233?`, rtfEscape("café"))
	assert.Equal(t, `\u-10179?\u-8704?`, rtfEscape("😀"))
}

func TestText(t *testing.T) {
	txt := Text(Document{Kind: domain.KindEHCAssessment, Body: "Summary:\nAll good."})
	assert.Equal(t, "EHC Assessment Report\n\nChild: Unknown\nReport ID: \n\nSummary:\n\nAll good.\n", txt)
}

func TestRender(t *testing.T) {
	doc := sampleDoc()
	for _, f := range []Format{FormatMarkdown, FormatRTF, FormatHTML, FormatText} {
		out, err := Render(doc, f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}
	_, err := Render(doc, Format("docx"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"md": FormatMarkdown, "markdown": FormatMarkdown, ".RTF": FormatRTF, " html ": FormatHTML, "txt": FormatText,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("docx")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestFilenameAndContentType(t *testing.T) {
	assert.Equal(t, "ehc_assessment_1a2b3c4d.rtf", sampleDoc().Filename(FormatRTF))
	assert.Equal(t, "ehc_assessment_draft.md", Document{Kind: domain.KindEHCAssessment}.Filename(FormatMarkdown))
	assert.Equal(t, "application/rtf", FormatRTF.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
}
