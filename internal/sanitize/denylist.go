package sanitize

import (
	"regexp"
	"strings"
)

// seedVocabulary is the small curated vocabulary the byte-level scrub
// expands. Seeds cover script triggers, macro storage names, LOLBin
// invocations, and loader URL schemes. Longer seeds precede their
// substrings so the scrub reports the most specific match.
var seedVocabulary = []string{
	"javascript",
	"openaction",
	"vbaproject",
	"powershell",
	"shell",
	"wscript",
	"cscript",
	"mshta",
	"certutil",
	"rundll32",
	"regsvr32",
	"bitsadmin",
	"cmd.exe",
	"file://",
	"vbscript:",
}

// charSubstitutions maps a letter to the look-alike characters attackers
// substitute for it. Expansion folds these into the match so "j4v4script"
// and "p0wershell" do not slip past the scrub.
var charSubstitutions = map[byte]string{
	'a': "@4",
	'e': "3",
	'i': "1!",
	'o': "0",
	's': "5$",
	't': "7",
}

// separatorClass matches the junk attackers wedge between keyword
// characters. At most one per gap keeps the expansion tight enough to
// avoid matching unrelated text.
const separatorClass = `[ \t._\-]?`

// denyEntry pairs a seed with its expanded matcher.
type denyEntry struct {
	seed string
	re   *regexp.Regexp
}

// buildDenyList expands every seed into a case-, separator-, and
// substitution-tolerant pattern. Built once at engine construction.
func buildDenyList() []denyEntry {
	entries := make([]denyEntry, 0, len(seedVocabulary))
	for _, seed := range seedVocabulary {
		entries = append(entries, denyEntry{seed: seed, re: expandSeed(seed)})
	}
	return entries
}

// expandSeed compiles one seed into its obfuscation-tolerant pattern.
func expandSeed(seed string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString(`(?i)`)
	for i := 0; i < len(seed); i++ {
		c := seed[i]
		if subs, ok := charSubstitutions[c]; ok {
			sb.WriteByte('[')
			sb.WriteByte(c)
			sb.WriteString(regexp.QuoteMeta(subs))
			sb.WriteByte(']')
		} else {
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
		// No separator tolerance across the final character, and none
		// around literal punctuation in the seed itself.
		if i < len(seed)-1 && isWordChar(c) && isWordChar(seed[i+1]) {
			sb.WriteString(separatorClass)
		}
	}
	return regexp.MustCompile(sb.String())
}

// isWordChar reports whether a seed byte is a letter or digit.
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
