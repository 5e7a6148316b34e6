package normalize

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
	"gopkg.in/yaml.v3"
)

/*
Responsibilities
- Trim trailing whitespace, keeping two-space hard breaks
- Collapse runs of blank lines to a single blank line
- Optionally tighten loose lists
- Optionally prepend YAML frontmatter

Fenced code is never touched.
*/

type MarkdownConstraint struct {
	metadataSink metadata.MetadataSink
}

func NewMarkdownConstraint(
	metadataSink metadata.MetadataSink,
) MarkdownConstraint {
	return MarkdownConstraint{
		metadataSink: metadataSink,
	}
}

func (m *MarkdownConstraint) Normalize(
	markdown []byte,
	resourceIDs []string,
	param NormalizeParam,
) (NormalizedMarkdownDoc, failure.ClassifiedError) {
	doc, err := normalize(markdown, resourceIDs, param)
	if err != nil {
		var normalizationError *NormalizationError
		errors.As(err, &normalizationError)
		m.metadataSink.RecordError(
			time.Now(),
			"normalize",
			"MarkdownConstraint.Normalize",
			mapNormalizationErrorToMetadataCause(normalizationError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, param.sourceURL),
				metadata.NewAttr(metadata.AttrMessage, normalizationError.Message),
			},
		)
		return NormalizedMarkdownDoc{}, normalizationError
	}
	return doc, nil
}

func normalize(markdown []byte, resourceIDs []string, param NormalizeParam) (NormalizedMarkdownDoc, *NormalizationError) {
	content := Tidy(markdown, param.forceTightLists)
	if !param.withFrontmatter {
		return NewNormalizedMarkdownDoc(nil, nil, content), nil
	}

	algo := param.hashAlgo
	if algo == "" {
		algo = hashutil.HashAlgoBLAKE3
	}
	sum, err := hashutil.HashBytes(content, algo)
	if err != nil {
		return NormalizedMarkdownDoc{}, &NormalizationError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}

	frontmatter := NewFrontmatter(
		extractTitle(content),
		param.sourceURL,
		param.clippedAt.UTC(),
		string(algo)+":"+sum,
		resourceIDs,
		param.appVersion,
	)
	header, err := marshalFrontmatter(frontmatter)
	if err != nil {
		return NormalizedMarkdownDoc{}, &NormalizationError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseFrontmatterMarshalFailed,
		}
	}
	return NewNormalizedMarkdownDoc(&frontmatter, header, content), nil
}

func marshalFrontmatter(f Frontmatter) ([]byte, error) {
	body, err := yaml.Marshal(frontmatterDTO{
		Title:         f.title,
		SourceURL:     f.sourceURL,
		ClippedAt:     f.clippedAt,
		ContentHash:   f.contentHash,
		Resources:     f.resources,
		ClipmdVersion: f.clipmdVersion,
	})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(body)
	buf.WriteString("---\n\n")
	return buf.Bytes(), nil
}

var (
	fenceDelimiter = regexp.MustCompile("^\\s*(`{3,}|~{3,})")
	listItemLine   = regexp.MustCompile(`^\s*([-*+]|\d{1,9}[.)])(\s|$)`)
	atxHeadingLine = regexp.MustCompile(`^ {0,3}#{1,6}\s+(.+?)(\s+#+)?\s*$`)
)

type lineKind int

const (
	lineText lineKind = iota
	lineFence
	lineCode
)

type mdLine struct {
	text string
	kind lineKind
}

func (l mdLine) blank() bool {
	return l.kind == lineText && strings.TrimSpace(l.text) == ""
}

// Tidy applies the whitespace rules to rendered markdown. The result ends
// with exactly one newline, or is empty.
func Tidy(markdown []byte, forceTightLists bool) []byte {
	lines := scanLines(string(markdown))
	lines = trimTrailingWhitespace(lines)
	if forceTightLists {
		lines = tightenLists(lines)
	}
	lines = collapseBlankLines(lines)

	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l.text)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// scanLines splits markdown into lines and classifies fenced regions. An
// unterminated fence runs to the end of the input.
func scanLines(s string) []mdLine {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	raw := strings.Split(s, "\n")
	if len(raw) > 1 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]mdLine, 0, len(raw))
	var fence string
	for _, text := range raw {
		if fence == "" {
			if m := fenceDelimiter.FindStringSubmatch(text); m != nil {
				fence = m[1]
				lines = append(lines, mdLine{text: text, kind: lineFence})
				continue
			}
			lines = append(lines, mdLine{text: text, kind: lineText})
			continue
		}
		if closesFence(text, fence) {
			fence = ""
			lines = append(lines, mdLine{text: text, kind: lineFence})
			continue
		}
		lines = append(lines, mdLine{text: text, kind: lineCode})
	}
	return lines
}

func closesFence(text string, fence string) bool {
	t := strings.TrimSpace(text)
	if len(t) < len(fence) {
		return false
	}
	return strings.Trim(t, fence[:1]) == ""
}

func trimTrailingWhitespace(lines []mdLine) []mdLine {
	for i := range lines {
		if lines[i].kind == lineCode {
			continue
		}
		text := lines[i].text
		trimmed := strings.TrimRight(text, " \t")
		if lines[i].kind == lineText && hardBreak(text, trimmed) && i+1 < len(lines) && !lines[i+1].blank() && lines[i+1].kind == lineText {
			trimmed += "  "
		}
		lines[i].text = trimmed
	}
	return lines
}

func hardBreak(text string, trimmed string) bool {
	return strings.TrimSpace(trimmed) != "" && strings.HasSuffix(text, "  ")
}

// tightenLists drops blank lines between list items. A blank line before an
// indented continuation paragraph is kept.
func tightenLists(lines []mdLine) []mdLine {
	out := make([]mdLine, 0, len(lines))
	inList := false
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if l.blank() {
			j := i
			for j < len(lines) && lines[j].blank() {
				j++
			}
			if inList && j < len(lines) && lines[j].kind == lineText && listItemLine.MatchString(lines[j].text) {
				i = j - 1
				continue
			}
			out = append(out, l)
			continue
		}
		if l.kind != lineCode {
			switch {
			case l.kind == lineText && listItemLine.MatchString(l.text):
				inList = true
			case strings.HasPrefix(l.text, " ") || strings.HasPrefix(l.text, "\t"):
			default:
				inList = false
			}
		}
		out = append(out, l)
	}
	return out
}

// collapseBlankLines keeps at most one blank line in a row and drops
// leading and trailing blank lines.
func collapseBlankLines(lines []mdLine) []mdLine {
	out := make([]mdLine, 0, len(lines))
	for _, l := range lines {
		if l.blank() && (len(out) == 0 || out[len(out)-1].blank()) {
			continue
		}
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1].blank() {
		out = out[:len(out)-1]
	}
	return out
}

func extractTitle(content []byte) string {
	for _, l := range scanLines(string(content)) {
		if l.kind != lineText {
			continue
		}
		if m := atxHeadingLine.FindStringSubmatch(l.text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
