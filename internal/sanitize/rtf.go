package sanitize

import (
	"regexp"
	"strings"

	"github.com/safedocs/safedocs/internal/analyzer"
)

// rtfExcise is the primary RTF engine: it removes the enclosing group of
// every dangerous construct from the document. RTF groups are balanced
// brace spans, so whole-group removal keeps the remaining document well
// formed.
type rtfExcise struct{}

// excisionTargets locate a dangerous control word inside a group, paired
// with the label recorded for the removal. Order matters only for
// labeling; each target is excised until no match remains.
var excisionTargets = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\\object\b`), "rtf_object"},
	{regexp.MustCompile(`(?i)\\objdata\b`), "rtf_objdata"},
	{regexp.MustCompile(`(?is)\\fldinst[^{}]*\bDDE(AUTO)?\b`), "rtf_dde_field"},
	{regexp.MustCompile(`(?is)\\fldinst[^{}]*\b(INCLUDEPICTURE|INCLUDETEXT)\b`), "rtf_include_field"},
	{regexp.MustCompile(`(?i)\\pict\b`), "rtf_pict"},
}

// maxExcisions bounds the removal loop on adversarial input.
const maxExcisions = 10000

// name returns the stage name.
func (rtfExcise) name() string {
	return "rtf_excise"
}

// apply removes dangerous groups from the document.
func (rtfExcise) apply(data []byte) (*stageResult, error) {
	if !strings.HasPrefix(strings.TrimSpace(string(data[:min(len(data), 16)])), `{\rt`) {
		return nil, ErrNotStructured
	}

	text := analyzer.DecodeRTF(data, 0)
	var removed []string
	for _, target := range excisionTargets {
		matched := false
		for i := 0; i < maxExcisions; i++ {
			loc := target.re.FindStringIndex(text)
			if loc == nil {
				break
			}
			start, end := enclosingGroup(text, loc[0])
			if start <= 0 {
				// Outside any subgroup (or directly in the document
				// root, which must survive); drop just the matched span.
				start, end = loc[0], loc[1]
			}
			text = text[:start] + text[end:]
			matched = true
		}
		if matched {
			removed = append(removed, target.label)
		}
	}

	if len(removed) == 0 {
		return &stageResult{output: data}, nil
	}
	return &stageResult{output: analyzer.EncodeRTF(text), removed: removed}, nil
}

// enclosingGroup returns the [start, end) span of the innermost brace
// group containing position pos, or (-1, -1) when pos is outside any
// group. Backslash-escaped braces are literal text, not group
// delimiters.
func enclosingGroup(text string, pos int) (int, int) {
	start := -1
	depth := 0
	for i := pos; i >= 0; i-- {
		if isEscapedBrace(text, i) {
			continue
		}
		switch text[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				start = i
			} else {
				depth--
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return -1, -1
	}

	depth = 0
	for i := start; i < len(text); i++ {
		if isEscapedBrace(text, i) {
			continue
		}
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return start, i + 1
			}
		}
	}
	return start, len(text)
}

// isEscapedBrace reports whether the byte at i is a brace escaped by a
// backslash.
func isEscapedBrace(text string, i int) bool {
	if text[i] != '{' && text[i] != '}' {
		return false
	}
	return i > 0 && text[i-1] == '\\'
}
