package sanitize

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

// OOXML sanitization always rewrites the zip container; zip members
// cannot be deleted in place. The structural stage keeps every part and
// filters the dangerous ones; the rebuild stage inverts that and keeps
// only an allow-list of core parts.

// maxSanitizePartSize caps the decompressed size of any single part the
// sanitizer is willing to process.
const maxSanitizePartSize = 64 << 20 // 64MB

// droppedPartFragments identify zip members removed outright by the
// structural stage.
var droppedPartFragments = []string{
	"vbaproject.bin",
	"vbaprojectsignature.bin",
	"/embeddings/",
	"/activex",
	"/webextensions/",
}

// dangerousNodePatterns match XML elements stripped from surviving
// document parts: embedded OLE objects, ActiveX control references, and
// remote template attachments.
var dangerousNodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<(?:\w+:)?OLEObject\b[^>]*?(?:/>|>.*?</(?:\w+:)?OLEObject\s*>)`),
	regexp.MustCompile(`(?s)<(?:\w+:)?control\b[^>]*?(?:/>|>.*?</(?:\w+:)?control\s*>)`),
	regexp.MustCompile(`<(?:\w+:)?attachedTemplate\b[^>]*/>`),
}

// sanitizeRelationships models a .rels part for rewriting.
type sanitizeRelationships struct {
	XMLName xml.Name               `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Rels    []sanitizeRelationship `xml:"Relationship"`
}

// sanitizeRelationship is one relationship entry.
type sanitizeRelationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// ooxmlStructural is the primary OOXML engine: it rewrites the container
// keeping every part except the dangerous ones, strips external
// relationships, and excises dangerous XML nodes from surviving parts.
type ooxmlStructural struct{}

// name returns the stage name.
func (ooxmlStructural) name() string {
	return "ooxml_structural"
}

// apply rewrites the container.
func (ooxmlStructural) apply(data []byte) (*stageResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotStructured, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var removed []string

	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if isDroppedPart(name) {
			removed = append(removed, f.Name)
			continue
		}

		content, err := readZipMember(f)
		if err != nil {
			removed = append(removed, f.Name)
			continue
		}

		switch {
		case strings.HasSuffix(name, ".rels"):
			cleaned, dropped := filterRels(content)
			if dropped > 0 {
				removed = append(removed, fmt.Sprintf("%s: %d external relationship(s)", f.Name, dropped))
				content = cleaned
			}
		case strings.HasSuffix(name, ".xml"):
			cleaned, labels := stripDangerousNodes(content)
			if len(labels) > 0 {
				removed = append(removed, fmt.Sprintf("%s: %s", f.Name, strings.Join(labels, ", ")))
				content = cleaned
			}
		}

		if err := writeZipMember(zw, f.Name, content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	if len(removed) == 0 {
		return &stageResult{output: data}, nil
	}
	return &stageResult{output: buf.Bytes(), removed: removed}, nil
}

// keptByRebuild is the allow-list of part name patterns the rebuild
// stage preserves.
var keptByRebuild = []string{
	"[content_types].xml",
	"_rels/.rels",
	"docprops/core.xml",
	"docprops/app.xml",
	"word/document.xml",
	"word/styles.xml",
	"word/settings.xml",
	"word/fonttable.xml",
	"word/_rels/document.xml.rels",
	"ppt/presentation.xml",
	"xl/workbook.xml",
	"xl/styles.xml",
	"xl/sharedstrings.xml",
}

// keptRebuildPrefixes are directory prefixes kept wholesale.
var keptRebuildPrefixes = []string{
	"word/media/",
	"ppt/slides/",
	"ppt/media/",
	"xl/worksheets/",
	"xl/media/",
}

// ooxmlRebuild is the secondary OOXML engine: a fresh container built
// from only the allow-listed core parts. More content is lost than with
// the structural stage, but no parsing of the dropped parts is needed.
type ooxmlRebuild struct{}

// name returns the stage name.
func (ooxmlRebuild) name() string {
	return "ooxml_rebuild"
}

// apply rebuilds the container from the allow-list.
func (ooxmlRebuild) apply(data []byte) (*stageResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotStructured, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var removed []string
	kept := 0

	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if !isKeptByRebuild(name) {
			removed = append(removed, f.Name)
			continue
		}
		content, err := readZipMember(f)
		if err != nil {
			removed = append(removed, f.Name)
			continue
		}
		if strings.HasSuffix(name, ".rels") {
			content, _ = filterRels(content)
		}
		if err := writeZipMember(zw, f.Name, content); err != nil {
			return nil, err
		}
		kept++
	}
	if kept == 0 {
		return nil, ErrNotStructured
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	if len(removed) == 0 {
		return &stageResult{output: data}, nil
	}
	return &stageResult{output: buf.Bytes(), removed: removed}, nil
}

// isDroppedPart reports whether the structural stage removes a member.
func isDroppedPart(name string) bool {
	for _, frag := range droppedPartFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// isKeptByRebuild reports whether the rebuild stage preserves a member.
func isKeptByRebuild(name string) bool {
	for _, keep := range keptByRebuild {
		if name == keep {
			return true
		}
	}
	for _, prefix := range keptRebuildPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// filterRels parses a .rels part and rewrites it without external
// relationships. Unparseable parts are replaced with an empty
// relationship set: a relationship the sanitizer cannot read is a
// relationship it cannot vouch for.
func filterRels(content []byte) ([]byte, int) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charset.NewReaderLabel

	var rels sanitizeRelationships
	if err := dec.Decode(&rels); err != nil {
		return marshalRels(sanitizeRelationships{}), 1
	}

	filtered := sanitizeRelationships{}
	dropped := 0
	for _, rel := range rels.Rels {
		if isExternalRel(rel) {
			dropped++
			continue
		}
		filtered.Rels = append(filtered.Rels, rel)
	}
	if dropped == 0 {
		return content, 0
	}
	return marshalRels(filtered), dropped
}

// isExternalRel reports whether a relationship points outside the
// package. The sanitizer is stricter than the analyzer here: every
// external target goes, ordinary hyperlinks included.
func isExternalRel(rel sanitizeRelationship) bool {
	if rel.TargetMode == "External" {
		return true
	}
	target := strings.ToLower(strings.TrimSpace(rel.Target))
	for _, scheme := range []string{"file:", "javascript:", "vbscript:", "data:", "smb:", "http:", "https:"} {
		if strings.HasPrefix(target, scheme) {
			return true
		}
	}
	return false
}

// marshalRels serializes a relationship set back to part content.
func marshalRels(rels sanitizeRelationships) []byte {
	body, err := xml.Marshal(rels)
	if err != nil {
		// A struct of strings cannot fail to marshal; keep a valid
		// empty part as the unreachable fallback.
		body = []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)
	}
	return append([]byte(xml.Header), body...)
}

// stripDangerousNodes removes dangerous XML elements from a part and
// labels what was removed.
func stripDangerousNodes(content []byte) ([]byte, []string) {
	labels := []string{}
	nodeNames := []string{"OLEObject", "control", "attachedTemplate"}
	for i, re := range dangerousNodePatterns {
		if !re.Match(content) {
			continue
		}
		content = re.ReplaceAll(content, nil)
		labels = append(labels, nodeNames[i])
	}
	return content, labels
}

// readZipMember reads one member with a size cap.
func readZipMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // read-only stream
	return io.ReadAll(io.LimitReader(rc, maxSanitizePartSize))
}

// writeZipMember writes one member with deflate compression.
func writeZipMember(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}
