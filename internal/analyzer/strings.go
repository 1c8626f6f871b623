package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/safedocs/safedocs/internal/model"
)

// suspiciousStrings is the fixed vocabulary of the lightweight textual
// scan shared by every analyzer. Hits are a weak signal on their own
// (script keywords appear in benign documents too), so any number of
// hits contributes a single medium-severity finding.
var suspiciousStrings = []string{
	"javascript",
	"<script",
	"eval(",
	"wscript.shell",
	"powershell",
	"activexobject",
	"shell(",
	"cmd.exe",
	"mshta",
	"autoopen",
	"document.open",
	"base64,",
	"fromcharcode(",
	"createobject(",
}

// maxReportedHits bounds how many matched strings appear in the finding
// description.
const maxReportedHits = 5

// scanSuspiciousStrings performs a case-insensitive substring scan over
// the head of the file. Returns the rule points contributed and the
// finding, if any.
//
// The raw bytes are lowered directly; every suspicious token is ASCII,
// so no character set decoding is needed here.
func scanSuspiciousStrings(data []byte) (int, []model.Finding) {
	sample := data
	if len(sample) > maxTextScan {
		sample = sample[:maxTextScan]
	}
	low := strings.ToLower(string(sample))

	var hits []string
	for _, s := range suspiciousStrings {
		if strings.Contains(low, s) {
			hits = append(hits, s)
		}
	}
	if len(hits) == 0 {
		return 0, nil
	}

	sort.Strings(hits)
	if len(hits) > maxReportedHits {
		hits = hits[:maxReportedHits]
	}
	f := model.NewFinding(
		"suspicious_strings",
		"Suspicious strings found",
		fmt.Sprintf("Matched: %s", strings.Join(hits, ", ")),
		"",
	)
	return pointsSuspiciousString, []model.Finding{f}
}

// scanEntropy contributes the entropy heuristic finding when the
// normalized chunk entropy exceeds the packed-content threshold.
func scanEntropy(data []byte) (int, []model.Finding) {
	entropy := ChunkEntropy(data)
	if entropy <= entropyThreshold {
		return 0, nil
	}
	f := model.NewFinding(
		"high_entropy",
		"High byte entropy",
		fmt.Sprintf("Normalized entropy %.2f indicates packed or encrypted content", entropy),
		"",
	)
	return pointsHighEntropy, []model.Finding{f}
}
