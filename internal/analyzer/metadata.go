package analyzer

import (
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/safedocs/safedocs/internal/model"
)

// metadataTags are the EXIF tags worth reporting when found inside a
// document's embedded images. GPS position and device serial numbers
// disclose information about the document author; everything else is
// noise at document-scan granularity.
var metadataTags = map[string]string{
	"GPSLatitude":        "GPS position",
	"GPSLongitude":       "GPS position",
	"GPSLatitudeRef":     "GPS position",
	"GPSLongitudeRef":    "GPS position",
	"SerialNumber":       "device serial number",
	"CameraSerialNumber": "device serial number",
	"BodySerialNumber":   "device serial number",
	"LensSerialNumber":   "device serial number",
	"Artist":             "author identity",
	"Author":             "author identity",
	"XPAuthor":           "author identity",
}

// scanEmbeddedMetadata probes the given bytes for an EXIF blob and
// reports privacy-relevant tags. The finding is informational and
// contributes zero rule points: metadata is a disclosure concern, not an
// execution vector, and must never move the verdict.
func scanEmbeddedMetadata(data []byte, location string) []model.Finding {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		concern, ok := metadataTags[entry.TagName]
		if !ok {
			continue
		}
		// One finding per document is enough; the first sensitive tag
		// already establishes that metadata should be stripped.
		f := model.NewFinding(
			"doc_metadata",
			"Embedded image metadata",
			fmt.Sprintf("Embedded image carries %s (%s)", concern, entry.TagName),
			location,
		)
		return []model.Finding{f}
	}
	return nil
}
