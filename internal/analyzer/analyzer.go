package analyzer

import (
	"context"
	"errors"

	"github.com/safedocs/safedocs/internal/format"
	"github.com/safedocs/safedocs/internal/model"
)

// Rule point weights. Summed points are normalized by dividing by
// scoreNormalizer and capping at 1.0.
const (
	pointsExploitAction    = 80
	pointsOpenActionJS     = 50
	pointsNamedJS          = 50
	pointsDeepJS           = 60
	pointsCatalogAA        = 40
	pointsRegexFallback    = 40
	pointsVBAMacro         = 70
	pointsRTFExploit       = 70
	pointsEmbeddedOLE      = 20
	pointsExternalRel      = 20
	pointsActiveX          = 20
	pointsHighEntropy      = 20
	pointsSuspiciousString = 15

	scoreNormalizer = 100.0
)

// Traversal caps. These bound the work done on adversarial input; when a
// cap is hit the analyzer records a resource_limit finding and concludes
// with partial results rather than aborting.
const (
	// maxPDFObjects caps the number of indirect objects walked in a PDF.
	maxPDFObjects = 1000

	// maxZipEntries caps the number of zip members inspected in an OOXML
	// container.
	maxZipEntries = 4096

	// maxRelsPartSize caps the decompressed size of a .rels part we are
	// willing to parse. Relationship parts are tiny in legitimate files.
	maxRelsPartSize = 1 << 20 // 1MB

	// maxTextScan caps how many leading bytes feed the suspicious-string
	// and RTF control-word scans.
	maxTextScan = 300000
)

// ErrMalformedContainer reports a structural parse failure. It is
// recovered locally by falling back to byte-level analysis and never
// escapes an Analyze call.
var ErrMalformedContainer = errors.New("malformed container structure")

// Result is the outcome of one analysis pass.
type Result struct {
	// Score is the normalized rule score in [0,1].
	Score float64

	// Findings is the evidence collected, in discovery order.
	Findings []model.Finding
}

// Analyzer inspects artifact content for dangerous constructs.
//
// Design decision: We use an interface rather than concrete types because:
//  1. Allows for easy extension with new formats
//  2. Enables testing the orchestrator with mock analyzers
//  3. The Unknown format gets a real (no-op) implementation instead of
//     nil checks at every call site
type Analyzer interface {
	// Name returns the analyzer's name for logging and reporting.
	Name() string

	// Analyze inspects the artifact and returns findings plus the rule
	// score. It returns an error only for context cancellation;
	// structural failures degrade to lower-confidence findings.
	Analyze(ctx context.Context, artifact *model.Artifact) (*Result, error)
}

// ForFormat returns the analyzer for a detected format.
// Unsupported formats (Unknown, legacy OLE) get the Null analyzer.
func ForFormat(d format.Detection) Analyzer {
	switch d.Kind {
	case model.FormatPDF:
		return NewPDFAnalyzer()
	case model.FormatOOXML:
		return NewOOXMLAnalyzer()
	case model.FormatRTF:
		return NewRTFAnalyzer()
	default:
		return NewNullAnalyzer(d.Kind)
	}
}

// normalizeScore converts accumulated rule points to a [0,1] score.
func normalizeScore(points int) float64 {
	score := float64(points) / scoreNormalizer
	if score > 1.0 {
		return 1.0
	}
	return score
}
