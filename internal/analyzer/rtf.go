package analyzer

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/text/encoding/charmap"

	"github.com/safedocs/safedocs/internal/model"
)

// RTFAnalyzer scans Rich Text Format documents for object embeds and
// field instructions abused for code execution: \object/\objdata blocks,
// DDE and DDEAUTO fields, INCLUDEPICTURE/INCLUDETEXT instructions, and
// \pict payload blocks.
//
// The byte stream is decoded with a byte-preserving single-byte codepage
// (ISO 8859-1, where every byte maps to exactly one rune) so that the
// decoded text can be transformed and re-encoded without loss. RTF
// control words are plain ASCII, so the decode exists to keep payload
// bytes intact, not to interpret them.
type RTFAnalyzer struct{}

// NewRTFAnalyzer creates a new RTFAnalyzer.
func NewRTFAnalyzer() *RTFAnalyzer {
	return &RTFAnalyzer{}
}

// Name returns the analyzer name.
func (a *RTFAnalyzer) Name() string {
	return "rtf"
}

// rtfDangerousPatterns are the control-word classes flagged as exploit
// vectors, in priority order. Each matching class contributes one
// high-weight finding.
var rtfDangerousPatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)\\objupdate\b`), "objupdate"},
	{regexp.MustCompile(`(?i)\\objdata\b`), "objdata"},
	{regexp.MustCompile(`(?i)\\object\b`), "object"},
	{regexp.MustCompile(`(?is){\\field\b[^}]*\\fldinst[^}]*\bDDE(AUTO)?\b`), "dde_field"},
	{regexp.MustCompile(`(?is){\\field\b[^}]*\\fldinst[^}]*\b(INCLUDEPICTURE|INCLUDETEXT)\b`), "include_field"},
	{regexp.MustCompile(`(?i)\\pict\b`), "pict"},
	{regexp.MustCompile(`(?i)\\field\b`), "field"},
}

// Analyze inspects an RTF artifact.
func (a *RTFAnalyzer) Analyze(ctx context.Context, artifact *model.Artifact) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	points := 0
	findings := make([]model.Finding, 0, 2)

	text := DecodeRTF(artifact.Data, maxTextScan)
	matched := make([]string, 0, 2)
	seenDDE := false
	for _, pat := range rtfDangerousPatterns {
		if !pat.re.MatchString(text) {
			continue
		}
		// A DDE field already matched as dde_field; the generic \field
		// pattern would double-report the same span.
		if pat.label == "field" && seenDDE {
			continue
		}
		if pat.label == "dde_field" || pat.label == "include_field" {
			seenDDE = true
		}
		matched = append(matched, pat.label)
	}

	if len(matched) > 0 {
		points += pointsRTFExploit
		findings = append(findings, model.NewFinding(
			"rtf_exploit",
			"RTF contains dangerous control words",
			fmt.Sprintf("Matched classes: %v", matched),
			"",
		))
	}

	p, f := scanSuspiciousStrings(artifact.Data)
	points += p
	findings = append(findings, f...)

	p, f = scanEntropy(artifact.Data)
	points += p
	findings = append(findings, f...)

	return &Result{Score: normalizeScore(points), Findings: findings}, nil
}

// DecodeRTF decodes up to limit bytes of RTF content with the
// byte-preserving single-byte codepage. limit <= 0 decodes everything.
// The decode cannot fail: ISO 8859-1 defines all 256 byte values.
func DecodeRTF(data []byte, limit int) string {
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Unreachable for this charmap; fall back to the raw bytes.
		return string(data)
	}
	return string(decoded)
}

// EncodeRTF is the inverse of DecodeRTF: it re-encodes transformed text
// back to the original single-byte representation.
func EncodeRTF(text string) []byte {
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return []byte(text)
	}
	return encoded
}
