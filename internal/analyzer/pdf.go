package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/safedocs/safedocs/internal/model"
)

// PDFAnalyzer hunts for auto-execution triggers in PDF documents:
// OpenAction and additional-action (/AA) entries, JavaScript registered
// in the Names tree, Launch/SubmitForm/ImportData actions, and script
// keys hidden in arbitrary indirect objects.
//
// Design decision: We walk the raw object syntax ("N G obj ... endobj"
// spans) instead of building a full xref-driven document model. The
// analyzer only needs to locate dangerous keys, and a syntactic walk
// keeps working on files with corrupt cross-reference tables — exactly
// the files malware authors produce. When even the syntactic walk finds
// nothing to parse, a regex pass over the raw bytes provides a
// lower-confidence fallback.
type PDFAnalyzer struct{}

// NewPDFAnalyzer creates a new PDFAnalyzer.
func NewPDFAnalyzer() *PDFAnalyzer {
	return &PDFAnalyzer{}
}

// Name returns the analyzer name.
func (a *PDFAnalyzer) Name() string {
	return "pdf"
}

// Object syntax patterns. The (?s) flag lets dictionaries span lines.
var (
	// objPattern matches one indirect object: "12 0 obj ... endobj".
	objPattern = regexp.MustCompile(`(?s)(\d+)\s+\d+\s+obj\b(.*?)endobj`)

	// catalogPattern identifies the document catalog dictionary.
	catalogPattern = regexp.MustCompile(`/Type\s*/Catalog\b`)

	// actionSubtypePattern extracts an action's /S subtype name.
	actionSubtypePattern = regexp.MustCompile(`/S\s*/(\w+)`)

	// refPattern matches an indirect reference "12 0 R".
	refPattern = regexp.MustCompile(`^\s*(\d+)\s+\d+\s+R\b`)

	// deepThreatPattern matches script or launch keys anywhere in an
	// object body. "/JS" cannot false-match inside "/JavaScript" because
	// of the case difference, but the word boundary guards against
	// other name collisions ("/JSX" style keys).
	deepThreatPattern = regexp.MustCompile(`/JS\b|/JavaScript\b|/S\s*/Launch\b`)

	// rawTokenPattern is the regex-fallback token set applied to raw
	// bytes when structural parsing yields nothing.
	rawTokenPattern = regexp.MustCompile(`/JavaScript\b|/JS\b|/Launch\b|/OpenAction\b|/AA\b`)
)

// criticalActionSubtypes are the action subtypes that execute external
// content without user interaction. Any of them is a critical finding.
var criticalActionSubtypes = map[string]bool{
	"Launch":     true,
	"SubmitForm": true,
	"ImportData": true,
}

// pdfObjects is the bounded set of parsed indirect objects.
type pdfObjects struct {
	// byNumber maps object number to body. First definition wins;
	// incremental updates appending redefinitions do not hide the
	// original content from the scan.
	byNumber map[int]string

	// order preserves discovery order for deterministic deep scans.
	order []int

	// truncated is true when the object cap was hit.
	truncated bool
}

// Analyze inspects a PDF artifact.
func (a *PDFAnalyzer) Analyze(ctx context.Context, artifact *model.Artifact) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	points := 0
	findings := make([]model.Finding, 0, 4)

	objs := parsePDFObjects(artifact.Data)
	if len(objs.byNumber) == 0 {
		// Structural parse failure: degrade to the raw token pass.
		findings = append(findings, model.NewFinding(
			"malformed_container",
			"PDF structure not parseable",
			"No indirect objects found; falling back to raw byte analysis",
			"",
		))
		if loc := rawTokenPattern.Find(artifact.Data); loc != nil {
			points += pointsRegexFallback
			findings = append(findings, model.NewFinding(
				"pdf_regex_match",
				"PDF raw structure matches script patterns",
				fmt.Sprintf("Raw byte match: %s", loc),
				"",
			))
		}
		return a.finish(artifact, points, findings), nil
	}

	if objs.truncated {
		findings = append(findings, model.NewFinding(
			"resource_limit",
			"PDF object traversal capped",
			fmt.Sprintf("Only the first %d objects were analyzed", maxPDFObjects),
			"",
		))
	}

	// Catalog-level triggers.
	catalog := findCatalog(objs)
	if catalog != "" {
		points += a.checkOpenAction(objs, catalog, &findings)
		points += a.checkAdditionalActions(catalog, &findings)
		points += a.checkNamedJavaScript(objs, catalog, &findings)
	}

	// Deep scan over every object body for hidden script/launch keys.
	for _, num := range objs.order {
		if deepThreatPattern.MatchString(objs.byNumber[num]) {
			points += pointsDeepJS
			findings = append(findings, model.NewFinding(
				"pdf_deep_js",
				"Hidden JavaScript/Launch in objects",
				"Script or launch keys found inside indirect objects",
				fmt.Sprintf("obj %d", num),
			))
			break
		}
	}

	return a.finish(artifact, points, findings), nil
}

// checkOpenAction scores the catalog's /OpenAction entry.
func (a *PDFAnalyzer) checkOpenAction(objs *pdfObjects, catalog string, findings *[]model.Finding) int {
	action, ok := resolveValue(objs, dictValue(catalog, "/OpenAction"))
	if !ok {
		return 0
	}
	m := actionSubtypePattern.FindStringSubmatch(action)
	if m == nil {
		return 0
	}
	subtype := m[1]
	switch {
	case criticalActionSubtypes[subtype]:
		*findings = append(*findings, model.NewFinding(
			"pdf_exploit_action",
			"PDF auto-launch action",
			fmt.Sprintf("OpenAction executes a /%s action on open", subtype),
			"/Root/OpenAction",
		))
		return pointsExploitAction
	case subtype == "JavaScript":
		*findings = append(*findings, model.NewFinding(
			"pdf_js_auto",
			"PDF OpenAction executes JavaScript",
			"The document runs JavaScript automatically when opened",
			"/Root/OpenAction",
		))
		return pointsOpenActionJS
	default:
		return 0
	}
}

// checkAdditionalActions scores a catalog-level /AA dictionary.
func (a *PDFAnalyzer) checkAdditionalActions(catalog string, findings *[]model.Finding) int {
	if dictValue(catalog, "/AA") == "" {
		return 0
	}
	*findings = append(*findings, model.NewFinding(
		"pdf_aa_action",
		"PDF global additional actions",
		"The catalog registers event-triggered actions (/AA)",
		"/Root/AA",
	))
	return pointsCatalogAA
}

// checkNamedJavaScript scores JavaScript registered in the Names tree.
func (a *PDFAnalyzer) checkNamedJavaScript(objs *pdfObjects, catalog string, findings *[]model.Finding) int {
	names, ok := resolveValue(objs, dictValue(catalog, "/Names"))
	if !ok || dictValue(names, "/JavaScript") == "" {
		return 0
	}
	*findings = append(*findings, model.NewFinding(
		"pdf_names_js",
		"PDF named JavaScript",
		"JavaScript scripts are registered in the document Names tree",
		"/Root/Names/JavaScript",
	))
	return pointsNamedJS
}

// finish adds the format-independent signals and normalizes the score.
func (a *PDFAnalyzer) finish(artifact *model.Artifact, points int, findings []model.Finding) *Result {
	p, f := scanSuspiciousStrings(artifact.Data)
	points += p
	findings = append(findings, f...)

	p, f = scanEntropy(artifact.Data)
	points += p
	findings = append(findings, f...)

	findings = append(findings, scanEmbeddedMetadata(artifact.Data, "embedded image")...)

	return &Result{Score: normalizeScore(points), Findings: findings}
}

// parsePDFObjects extracts indirect objects up to the traversal cap.
func parsePDFObjects(data []byte) *pdfObjects {
	objs := &pdfObjects{byNumber: make(map[int]string)}
	matches := objPattern.FindAllSubmatch(data, maxPDFObjects+1)
	for i, m := range matches {
		if i == maxPDFObjects {
			objs.truncated = true
			break
		}
		num := atoiBytes(m[1])
		if _, exists := objs.byNumber[num]; exists {
			continue
		}
		objs.byNumber[num] = string(m[2])
		objs.order = append(objs.order, num)
	}
	return objs
}

// findCatalog returns the body of the document catalog, or "".
func findCatalog(objs *pdfObjects) string {
	for _, num := range objs.order {
		if catalogPattern.MatchString(objs.byNumber[num]) {
			return objs.byNumber[num]
		}
	}
	return ""
}

// dictValue extracts the raw value following a dictionary key: either a
// balanced "<< ... >>" dictionary, an indirect reference, or a single
// token. Returns "" when the key is absent.
func dictValue(body, key string) string {
	i := indexToken(body, key)
	if i < 0 {
		return ""
	}
	rest := body[i+len(key):]
	// Skip whitespace.
	j := 0
	for j < len(rest) && (rest[j] == ' ' || rest[j] == '\n' || rest[j] == '\r' || rest[j] == '\t') {
		j++
	}
	rest = rest[j:]
	if rest == "" {
		return ""
	}
	if len(rest) >= 2 && rest[0] == '<' && rest[1] == '<' {
		return balancedDict(rest)
	}
	if m := refPattern.FindString(rest); m != "" {
		return m
	}
	// Single token: a name ("/Name") or other literal. Enough for the
	// presence checks this analyzer performs.
	end := 1
	for end < len(rest) && !isPDFDelimiter(rest[end]) {
		end++
	}
	return rest[:end]
}

// indexToken finds a PDF name token, requiring that the character after
// the match is a delimiter so "/AA" does not match "/AAPL".
func indexToken(s, token string) int {
	from := 0
	for {
		i := strings.Index(s[from:], token)
		if i < 0 {
			return -1
		}
		pos := from + i
		end := pos + len(token)
		if end >= len(s) || isPDFDelimiter(s[end]) {
			return pos
		}
		from = end
	}
}

// isPDFDelimiter reports whether b terminates a name token.
func isPDFDelimiter(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', '\x00', '/', '<', '>', '[', ']', '(', ')':
		return true
	default:
		return false
	}
}

// balancedDict returns the "<< ... >>" span at the start of s, handling
// nested dictionaries. Unbalanced input returns the remainder of s.
func balancedDict(s string) string {
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '<' && s[i+1] == '<' {
			depth++
			i++
			continue
		}
		if s[i] == '>' && s[i+1] == '>' {
			depth--
			i++
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return s
}

// resolveValue follows at most one level of indirect reference and
// returns the dictionary content the value points at.
func resolveValue(objs *pdfObjects, value string) (string, bool) {
	if value == "" {
		return "", false
	}
	if m := refPattern.FindStringSubmatch(value); m != nil {
		body, ok := objs.byNumber[atoiBytes([]byte(m[1]))]
		return body, ok
	}
	return value, true
}

// atoiBytes parses a small non-negative integer without allocation.
func atoiBytes(b []byte) int {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
