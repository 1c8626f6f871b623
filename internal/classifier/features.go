package classifier

import (
	"archive/zip"
	"bytes"
	"regexp"
	"strings"

	"github.com/safedocs/safedocs/internal/analyzer"
	"github.com/safedocs/safedocs/internal/format"
	"github.com/safedocs/safedocs/internal/model"
)

// FeatureColumns is the ordered feature schema shared with the training
// pipeline. Order matters: the model artifact's weight vector is aligned
// to this list, and the loader rejects artifacts declaring any other
// columns.
var FeatureColumns = []string{
	"size_bytes",
	"entropy",
	"pdf_has_javascript",
	"has_vba_project",
	"embedded_ole_count",
	"page_count",
	"has_embedded_objects",
}

var (
	pdfJSPattern   = regexp.MustCompile(`/JavaScript\b|/JS\b`)
	pdfPagePattern = regexp.MustCompile(`/Type\s*/Page\b`)
	pdfEmbedFile   = regexp.MustCompile(`/EmbeddedFile\b|/FileAttachment\b`)
	rtfObjPattern  = regexp.MustCompile(`(?i)\\object\b|\\objdata\b`)
)

// BuildFeatures derives the numeric feature map from artifact bytes.
// It probes the bytes independently of the structural analyzers so a
// divergence between rule findings and model input cannot silently
// couple the two signals.
func BuildFeatures(artifact *model.Artifact, detection format.Detection) map[string]float64 {
	features := map[string]float64{
		"size_bytes":           float64(artifact.Size),
		"entropy":              analyzer.ChunkEntropy(artifact.Data),
		"pdf_has_javascript":   0,
		"has_vba_project":      0,
		"embedded_ole_count":   0,
		"page_count":           0,
		"has_embedded_objects": 0,
	}

	switch detection.Kind {
	case model.FormatPDF:
		if pdfJSPattern.Match(artifact.Data) {
			features["pdf_has_javascript"] = 1
		}
		features["page_count"] = float64(len(pdfPagePattern.FindAll(artifact.Data, -1)))
		if pdfEmbedFile.Match(artifact.Data) {
			features["has_embedded_objects"] = 1
		}
	case model.FormatOOXML:
		zr, err := zip.NewReader(bytes.NewReader(artifact.Data), artifact.Size)
		if err != nil {
			break
		}
		oleCount := 0
		for _, f := range zr.File {
			name := strings.ToLower(f.Name)
			if strings.HasSuffix(name, "vbaproject.bin") {
				features["has_vba_project"] = 1
			}
			if strings.Contains(name, "/embeddings/") {
				oleCount++
			}
		}
		features["embedded_ole_count"] = float64(oleCount)
		if oleCount > 0 {
			features["has_embedded_objects"] = 1
		}
	case model.FormatRTF:
		if rtfObjPattern.Match(artifact.Data) {
			features["has_embedded_objects"] = 1
		}
	}

	return features
}
