package sanitize

// scrubFill is the byte each neutralized character is overwritten with.
// A printable filler keeps scrubbed files loadable in text tools.
const scrubFill = 'x'

// keywordScrub is the last-resort engine: it overwrites deny-list
// matches in place, byte for byte, so every internal offset in the file
// stays valid even though the payload no longer reads as its keyword.
type keywordScrub struct {
	denyList []denyEntry
}

// newKeywordScrub builds the scrub stage with the expanded deny-list.
func newKeywordScrub() *keywordScrub {
	return &keywordScrub{denyList: buildDenyList()}
}

// name returns the stage name.
func (s *keywordScrub) name() string {
	return "keyword_scrub"
}

// apply overwrites every deny-list match. It cannot fail: arbitrary
// bytes are valid input, and output length always equals input length.
func (s *keywordScrub) apply(data []byte) (*stageResult, error) {
	out := append([]byte{}, data...)
	var removed []string
	for _, entry := range s.denyList {
		locs := entry.re.FindAllIndex(out, -1)
		if locs == nil {
			continue
		}
		for _, loc := range locs {
			for i := loc[0]; i < loc[1]; i++ {
				out[i] = scrubFill
			}
		}
		removed = append(removed, "keyword:"+entry.seed)
	}
	if len(removed) == 0 {
		return &stageResult{output: data}, nil
	}
	return &stageResult{output: out, removed: removed}, nil
}
