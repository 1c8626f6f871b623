package analyzer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/safedocs/safedocs/internal/model"
)

// OOXMLAnalyzer inspects Office Open XML containers (.docx/.pptx/.xlsx
// and their macro-enabled variants) for active content: VBA macro
// projects, embedded OLE objects, ActiveX control parts, and dangerous
// external relationship targets.
//
// A corrupt or non-zip container degrades to a zero-score
// "malformed_container" finding; the generic byte-level signals still run.
type OOXMLAnalyzer struct{}

// NewOOXMLAnalyzer creates a new OOXMLAnalyzer.
func NewOOXMLAnalyzer() *OOXMLAnalyzer {
	return &OOXMLAnalyzer{}
}

// Name returns the analyzer name.
func (a *OOXMLAnalyzer) Name() string {
	return "ooxml"
}

// unsafeSchemes are relationship target schemes that load local or
// script content. Plain web hyperlinks are common in benign documents
// and are deliberately not flagged here (the sanitizer still strips all
// external targets from malicious files).
var unsafeSchemes = []string{"file:", "javascript:", "vbscript:", "data:", "smb:"}

// dangerousRelTypes are relationship types that fetch or attach remote
// content on open regardless of scheme.
var dangerousRelTypes = []string{"/attachedTemplate", "/oleObject", "/externalLink", "/frame"}

// maxMediaProbeSize caps how much of an embedded media part is read for
// the metadata probe.
const maxMediaProbeSize = 5 * 1024 * 1024

// relationships models a .rels part.
type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

// relationship is one relationship entry in a .rels part.
type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// Analyze inspects an OOXML artifact.
func (a *OOXMLAnalyzer) Analyze(ctx context.Context, artifact *model.Artifact) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	points := 0
	findings := make([]model.Finding, 0, 4)

	zr, err := zip.NewReader(bytes.NewReader(artifact.Data), artifact.Size)
	if err != nil {
		findings = append(findings, model.NewFinding(
			"malformed_container",
			"OOXML container not parseable",
			"The file is not a readable zip archive; only generic checks were applied",
			"",
		))
		return a.finish(artifact, points, findings), nil
	}

	hasMacro := false
	hasActiveX := false
	oleCount := 0
	externalRel := ""
	var metadataFindings []model.Finding

	for i, f := range zr.File {
		if i >= maxZipEntries {
			findings = append(findings, model.NewFinding(
				"resource_limit",
				"OOXML entry traversal capped",
				fmt.Sprintf("Only the first %d zip members were analyzed", maxZipEntries),
				"",
			))
			break
		}
		name := strings.ToLower(f.Name)

		switch {
		case strings.HasSuffix(name, "vbaproject.bin"), strings.HasSuffix(name, "vbaprojectsignature.bin"):
			if !hasMacro {
				hasMacro = true
				findings = append(findings, model.NewFinding(
					"office_macro",
					"Office document contains VBA macros",
					"A VBA macro project is embedded in the container",
					f.Name,
				))
			}
		case strings.Contains(name, "/embeddings/"):
			oleCount++
		case strings.Contains(name, "/activex"):
			if !hasActiveX {
				hasActiveX = true
				findings = append(findings, model.NewFinding(
					"ooxml_activex",
					"Office document contains ActiveX parts",
					"ActiveX control parts are present in the container",
					f.Name,
				))
			}
		case strings.HasSuffix(name, ".rels") && externalRel == "":
			if target := a.scanRels(f); target != "" {
				externalRel = target
				findings = append(findings, model.NewFinding(
					"ooxml_external_rel",
					"Office document declares dangerous external relationships",
					fmt.Sprintf("External target: %s", target),
					f.Name,
				))
			}
		case metadataFindings == nil && isMediaPart(name):
			metadataFindings = a.probeMedia(f)
		}
	}

	if hasMacro {
		points += pointsVBAMacro
	}
	if oleCount > 0 {
		points += pointsEmbeddedOLE * oleCount
		findings = append(findings, model.NewFinding(
			"office_ole",
			"Office document contains embedded OLE objects",
			fmt.Sprintf("%d embedded object(s) found", oleCount),
			"",
		))
	}
	if hasActiveX {
		points += pointsActiveX
	}
	if externalRel != "" {
		points += pointsExternalRel
	}
	findings = append(findings, metadataFindings...)

	return a.finish(artifact, points, findings), nil
}

// scanRels parses one .rels part and returns the first dangerous
// external target, or "". Parse failures are ignored: an unreadable
// relationship part cannot be scored, and the sanitizer drops what it
// cannot parse anyway.
func (a *OOXMLAnalyzer) scanRels(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close() //nolint:errcheck // read-only stream

	dec := xml.NewDecoder(io.LimitReader(rc, maxRelsPartSize))
	dec.CharsetReader = charset.NewReaderLabel

	var rels relationships
	if err := dec.Decode(&rels); err != nil {
		return ""
	}
	for _, rel := range rels.Rels {
		if isDangerousRel(rel) {
			return rel.Target
		}
	}
	return ""
}

// isDangerousRel reports whether a relationship loads unsafe external
// content.
func isDangerousRel(rel relationship) bool {
	target := strings.ToLower(strings.TrimSpace(rel.Target))
	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(target, scheme) {
			return true
		}
	}
	if rel.TargetMode != "External" {
		return false
	}
	relType := strings.ToLower(rel.Type)
	for _, t := range dangerousRelTypes {
		if strings.HasSuffix(relType, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// isMediaPart reports whether a zip member is an embedded image worth
// probing for metadata.
func isMediaPart(name string) bool {
	if !strings.Contains(name, "/media/") {
		return false
	}
	return strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") ||
		strings.HasSuffix(name, ".tif") || strings.HasSuffix(name, ".tiff")
}

// probeMedia reads one media part (size-capped) and scans it for
// privacy-relevant metadata.
func (a *OOXMLAnalyzer) probeMedia(f *zip.File) []model.Finding {
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close() //nolint:errcheck // read-only stream

	data, err := io.ReadAll(io.LimitReader(rc, maxMediaProbeSize))
	if err != nil {
		return nil
	}
	return scanEmbeddedMetadata(data, f.Name)
}

// finish adds the format-independent signals and normalizes the score.
func (a *OOXMLAnalyzer) finish(artifact *model.Artifact, points int, findings []model.Finding) *Result {
	p, f := scanSuspiciousStrings(artifact.Data)
	points += p
	findings = append(findings, f...)

	p, f = scanEntropy(artifact.Data)
	points += p
	findings = append(findings, f...)

	return &Result{Score: normalizeScore(points), Findings: findings}
}
