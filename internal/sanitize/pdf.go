package sanitize

import (
	"bytes"
	"fmt"
	"regexp"
)

// PDF sanitization operates on the raw object syntax, mirroring how the
// detection side walks it. The structural stage blanks dangerous
// dictionary entries with spaces of identical length, so cross-reference
// offsets elsewhere in the file stay valid. The rebuild stage
// reconstructs the file from scratch, dropping whole objects, and is
// used when blanking cannot work on the input.

var (
	sanitizeObjPattern = regexp.MustCompile(`(?s)(\d+)\s+\d+\s+obj\b(.*?)endobj`)
	catalogTypePattern = regexp.MustCompile(`/Type\s*/Catalog\b`)

	// dangerousSubtypePattern matches the /S entry of Launch-tier and
	// JavaScript actions. Blanking the whole entry leaves an action
	// dictionary with no subtype, which viewers treat as a no-op.
	dangerousSubtypePattern = regexp.MustCompile(`/S\s*/(Launch|SubmitForm|ImportData|JavaScript)\b`)

	// rebuildDropPattern marks objects the rebuild stage discards
	// entirely.
	rebuildDropPattern = regexp.MustCompile(`/JS\b|/JavaScript\b|/S\s*/(Launch|SubmitForm|ImportData)\b|/OpenAction\b|/AA\b`)
)

// structuralKeys are the dictionary keys the structural stage blanks,
// together with their removal labels.
var structuralKeys = []struct {
	key   string
	label string
}{
	{"/OpenAction", "OpenAction"},
	{"/AA", "AA"},
	{"/JS", "JS"},
	{"/JavaScript", "JavaScript"},
	{"/XFA", "XFA"},
}

// pdfStructural is the primary PDF engine: in-place, length-preserving
// removal of dangerous keys.
type pdfStructural struct{}

// name returns the stage name.
func (pdfStructural) name() string {
	return "pdf_structural"
}

// apply blanks dangerous keys across the whole file.
func (pdfStructural) apply(data []byte) (*stageResult, error) {
	if !sanitizeObjPattern.Match(data) {
		return nil, ErrNotStructured
	}

	out := append([]byte{}, data...)
	var removed []string
	// Subtypes go first: "/JavaScript" after "/S" is a value, and the
	// key pass below must not mistake it for a dictionary key.
	if n := blankPattern(out, dangerousSubtypePattern); n > 0 {
		removed = append(removed, "action_subtype")
	}
	for _, sk := range structuralKeys {
		if blankKeyEntries(out, sk.key) > 0 {
			removed = append(removed, sk.label)
		}
	}

	if len(removed) == 0 {
		return &stageResult{output: data}, nil
	}
	return &stageResult{output: out, removed: removed}, nil
}

// pdfRebuild is the secondary PDF engine: it reconstructs the document
// from the objects that carry no dangerous content, dropping annotations
// and interactive form machinery wholesale.
type pdfRebuild struct{}

// name returns the stage name.
func (pdfRebuild) name() string {
	return "pdf_rebuild"
}

// apply rebuilds the document.
func (pdfRebuild) apply(data []byte) (*stageResult, error) {
	matches := sanitizeObjPattern.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return nil, ErrNotStructured
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.7\n")
	var removed []string
	kept := 0
	for _, m := range matches {
		num, body := m[1], m[2]
		if rebuildDropPattern.Match(body) && !catalogTypePattern.Match(body) {
			removed = append(removed, fmt.Sprintf("object %s", num))
			continue
		}
		cleaned := append([]byte{}, body...)
		if catalogTypePattern.Match(cleaned) {
			for _, key := range []string{"/OpenAction", "/AA", "/Names", "/AcroForm", "/Annots"} {
				if blankKeyEntries(cleaned, key) > 0 {
					removed = append(removed, "catalog"+key)
				}
			}
		}
		fmt.Fprintf(&out, "%s 0 obj%sendobj\n", num, cleaned)
		kept++
	}
	if kept == 0 {
		return nil, ErrNotStructured
	}
	out.WriteString("%%EOF\n")

	if len(removed) == 0 {
		return &stageResult{output: data}, nil
	}
	return &stageResult{output: out.Bytes(), removed: removed}, nil
}

// blankKeyEntries overwrites every "key value" span with spaces and
// returns the number of entries blanked.
func blankKeyEntries(data []byte, key string) int {
	count := 0
	from := 0
	for {
		i := indexNameToken(data[from:], key)
		if i < 0 {
			return count
		}
		start := from + i
		end := start + len(key) + valueSpan(data[start+len(key):])
		for j := start; j < end; j++ {
			data[j] = ' '
		}
		count++
		from = end
	}
}

// blankPattern overwrites every regex match with spaces.
func blankPattern(data []byte, re *regexp.Regexp) int {
	locs := re.FindAllIndex(data, -1)
	for _, loc := range locs {
		for j := loc[0]; j < loc[1]; j++ {
			data[j] = ' '
		}
	}
	return len(locs)
}

// indexNameToken finds a PDF name token requiring a delimiter after it,
// so "/AA" does not match inside "/AAPL".
func indexNameToken(data []byte, token string) int {
	from := 0
	for {
		i := bytes.Index(data[from:], []byte(token))
		if i < 0 {
			return -1
		}
		pos := from + i
		end := pos + len(token)
		if end >= len(data) || isDelimiter(data[end]) {
			return pos
		}
		from = end
	}
}

// valueSpan returns the length of the value following a dictionary key:
// leading whitespace plus one dictionary, array, string, indirect
// reference, or single token.
func valueSpan(data []byte) int {
	i := 0
	for i < len(data) && isWhitespace(data[i]) {
		i++
	}
	if i >= len(data) {
		return i
	}
	switch {
	case i+1 < len(data) && data[i] == '<' && data[i+1] == '<':
		return i + balancedSpan(data[i:], "<<", ">>")
	case data[i] == '[':
		return i + balancedSpan(data[i:], "[", "]")
	case data[i] == '(':
		return i + stringSpan(data[i:])
	}
	if m := refSpanPattern.Find(data[i:]); m != nil {
		return i + len(m)
	}
	// A closing delimiter here means the key had no value; blank only
	// the key.
	if isDelimiter(data[i]) && data[i] != '/' {
		return i
	}
	// Single token: a name ("/Foo", leading slash consumed so the token
	// does not terminate at itself) or a bare literal.
	j := i + 1
	for j < len(data) && !isDelimiter(data[j]) {
		j++
	}
	return j
}

var refSpanPattern = regexp.MustCompile(`^\d+\s+\d+\s+R\b`)

// balancedSpan returns the span of a balanced open/close pair at the
// start of data. Unbalanced input consumes the remainder.
func balancedSpan(data []byte, open, closing string) int {
	depth := 0
	i := 0
	for i < len(data) {
		switch {
		case bytes.HasPrefix(data[i:], []byte(open)):
			depth++
			i += len(open)
		case bytes.HasPrefix(data[i:], []byte(closing)):
			depth--
			i += len(closing)
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(data)
}

// stringSpan returns the span of a PDF literal string at the start of
// data, honoring backslash escapes and nested parentheses.
func stringSpan(data []byte) int {
	depth := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(data)
}

// isWhitespace reports PDF whitespace.
func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', '\x00':
		return true
	default:
		return false
	}
}

// isDelimiter reports whether b terminates a PDF token.
func isDelimiter(b byte) bool {
	if isWhitespace(b) {
		return true
	}
	switch b {
	case '/', '<', '>', '[', ']', '(', ')':
		return true
	default:
		return false
	}
}
