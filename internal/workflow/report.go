package workflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/jess/internal/domain"
)

// ReportSections are the eight headings every generated report carries,
// in order.
var ReportSections = []string{
	"CHILD INFORMATION & REFERRAL DETAILS",
	"BACKGROUND AND DEVELOPMENTAL HISTORY",
	"ASSESSMENT METHODS AND OBSERVATIONS",
	"COGNITIVE ASSESSMENT FINDINGS",
	"EDUCATIONAL ATTAINMENT AND PROGRESS",
	"SOCIAL, EMOTIONAL AND BEHAVIOURAL FACTORS",
	"PSYCHOLOGICAL FORMULATION",
	"RECOMMENDATIONS AND PROVISION",
}

// ErrSectionsMissing is returned by CheckSections.
var ErrSectionsMissing = errors.New("report sections missing or out of order")

// ReportSystemPrompt is the fixed instruction sent with every report request.
func ReportSystemPrompt(kind domain.RecordKind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert Educational Psychologist writing a professional %s.\n\n", kind.Label())
	b.WriteString("Transform the informal notes you are given into a comprehensive, professionally written report. The report should be:\n")
	b.WriteString("- Written in professional, clear language appropriate for statutory assessment\n")
	b.WriteString("- Well-structured with clear headings\n")
	b.WriteString("- Evidence-based and objective\n")
	b.WriteString("- Suitable for sharing with parents, schools, and the local authority\n\n")
	b.WriteString("Use exactly these numbered section headings, in this order:\n\n")
	for i, s := range ReportSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nWrite in third person. Keep the language accessible to parents.")
	return b.String()
}

// RenderNotes serializes fields as "Label: value" lines in stage order,
// then field order. Keys outside the stage table follow in sorted order.
// Blank values are skipped.
func RenderNotes(stages *StageSet, fields map[string]string) string {
	var lines []string
	seen := make(map[string]bool, len(fields))

	for _, st := range stages.Stages {
		for _, f := range st.Fields {
			seen[f.Key] = true
			if v := strings.TrimSpace(fields[f.Key]); v != "" {
				lines = append(lines, f.ReportLabel()+": "+v)
			}
		}
	}

	var extra []string
	for k := range fields {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	for _, k := range extra {
		if v := strings.TrimSpace(fields[k]); v != "" {
			lines = append(lines, titleKey(k)+": "+v)
		}
	}

	return strings.Join(lines, "\n\n")
}

// reportPrompt is the user prompt carrying the rendered notes.
func reportPrompt(notes string) string {
	return "Report Data:\n\n" + notes + "\n\nProfessional report:"
}

// CheckSections verifies that doc contains the eight report headings in
// order. Matching is case-insensitive and ignores numbering.
func CheckSections(doc string) error {
	upper := strings.ToUpper(doc)
	pos := 0
	for i, heading := range ReportSections {
		idx := strings.Index(upper[pos:], heading)
		if idx < 0 {
			return fmt.Errorf("%w: section %d %q not found after offset %d", ErrSectionsMissing, i+1, heading, pos)
		}
		pos += idx + len(heading)
	}
	return nil
}
