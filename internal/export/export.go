// Package export converts a generated report into downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/yuin/goldmark"
)

// Format is a supported export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatRTF      Format = "rtf"
	FormatHTML     Format = "html"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or a file extension with a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatMarkdown, FormatRTF, FormatHTML, FormatText:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want md, rtf, html or txt)", s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatRTF:
		return "application/rtf"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Document is a generated report with the details printed above it.
type Document struct {
	Kind        domain.RecordKind
	SubjectName string
	RecordID    string
	Body        string
}

// Title is the document heading.
func (d Document) Title() string { return d.Kind.Label() }

// Filename suggests a download name such as "ehc_assessment_1a2b3c4d.rtf".
func (d Document) Filename(f Format) string {
	id := d.RecordID
	if id == "" {
		id = "draft"
	}
	return fmt.Sprintf("%s_%s.%s", d.Kind, id, f)
}

// BlockKind distinguishes headings from body paragraphs.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
)

// Block is one heading or paragraph of the report body.
type Block struct {
	Kind BlockKind
	Text string
}

var numbered = regexp.MustCompile(`^\d+\.`)

// IsHeading reports whether a trimmed line reads as a section heading:
// all caps, '#'-prefixed, numbered ("3. ..."), or a colon-terminated line
// shorter than 100 characters.
func IsHeading(line string) bool {
	switch {
	case line == "":
		return false
	case isUpper(line), strings.HasPrefix(line, "#"), numbered.MatchString(line):
		return true
	}
	return strings.HasSuffix(line, ":") && len(line) < 100
}

// isUpper is true when line has at least one cased letter and no lowercase.
func isUpper(line string) bool {
	cased := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// Blocks splits text into headings and paragraphs. Consecutive non-heading
// lines are joined with a space into one paragraph; blank lines end a
// paragraph. Heading text has '#' marks removed.
func Blocks(text string) []Block {
	var (
		blocks  []Block
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, Block{Kind: Paragraph, Text: strings.Join(current, " ")})
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if IsHeading(line) {
			flush()
			blocks = append(blocks, Block{Kind: Heading, Text: strings.TrimSpace(strings.ReplaceAll(line, "#", ""))})
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// Render produces the document in format f.
func Render(doc Document, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(Markdown(doc)), nil
	case FormatRTF:
		return RTF(doc), nil
	case FormatHTML:
		return HTML(doc)
	case FormatText:
		return []byte(Text(doc)), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// Markdown renders the document with '#' headings.
func Markdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title())
	fmt.Fprintf(&b, "**Child:** %s  \n**Report ID:** %s\n", subject(doc), doc.RecordID)
	for _, blk := range Blocks(doc.Body) {
		b.WriteString("\n")
		if blk.Kind == Heading {
			fmt.Fprintf(&b, "## %s\n", blk.Text)
			continue
		}
		b.WriteString(blk.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the Markdown form to an HTML fragment.
func HTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return buf.Bytes(), nil
}

// Text renders the document as plain text with blank-line separated blocks.
func Text(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nChild: %s\nReport ID: %s\n", doc.Title(), subject(doc), doc.RecordID)
	for _, blk := range Blocks(doc.Body) {
		b.WriteString("\n")
		b.WriteString(blk.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// RTF renders the document as Rich Text with bold headings.
func RTF(doc Document) []byte {
	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\deff0 {\fonttbl {\f0 Times New Roman;}}` + "\n")
	b.WriteString(`\f0\fs24 `)
	fmt.Fprintf(&b, `\b\fs28 %s\b0\fs24\par\par `, rtfEscape(doc.Title()))
	fmt.Fprintf(&b, `Child: %s\par `, rtfEscape(subject(doc)))
	fmt.Fprintf(&b, `Report ID: %s\par\par `, rtfEscape(doc.RecordID))
	for _, blk := range Blocks(doc.Body) {
		if blk.Kind == Heading {
			fmt.Fprintf(&b, `\b %s\b0\par\par `, rtfEscape(blk.Text))
			continue
		}
		fmt.Fprintf(&b, `%s\par\par `, rtfEscape(blk.Text))
	}
	b.WriteString("}")
	return []byte(b.String())
}

// rtfEscape escapes control characters and writes non-ASCII runes as
// \uN? sequences.
func rtfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r > 0x7f:
			// RTF \u takes a signed 16-bit value; astral runes are split
			// into surrogate pairs.
			for _, u := range utf16.Encode([]rune{r}) {
				fmt.Fprintf(&b, `\u%d?`, int16(u))
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func subject(doc Document) string {
	if strings.TrimSpace(doc.SubjectName) == "" {
		return domain.UnknownSubject
	}
	return doc.SubjectName
}
