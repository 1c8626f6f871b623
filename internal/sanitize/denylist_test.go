package sanitize

import "testing"

// TestExpandSeedObfuscationVariants tests that the expanded patterns
// catch the cheap obfuscations of each seed.
func TestExpandSeedObfuscationVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seed  string
		input string
		match bool
	}{
		{seed: "javascript", input: "javascript", match: true},
		{seed: "javascript", input: "JaVaScRiPt", match: true},
		{seed: "javascript", input: "j4v4scr1pt", match: true},
		{seed: "javascript", input: "j a v a s c r i p t", match: true},
		{seed: "javascript", input: "java-script", match: true},
		{seed: "javascript", input: "ecmascript", match: false},
		{seed: "powershell", input: "p0wer_5hell", match: true},
		{seed: "openaction", input: "0pen.Acti0n", match: true},
		{seed: "cmd.exe", input: "CMD.EXE", match: true},
		{seed: "cmd.exe", input: "cmdzexe", match: false},
		{seed: "file://", input: "FILE://share", match: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.seed+"/"+tt.input, func(t *testing.T) {
			t.Parallel()

			re := expandSeed(tt.seed)
			if got := re.MatchString(tt.input); got != tt.match {
				t.Errorf("expandSeed(%q).MatchString(%q) = %v, want %v", tt.seed, tt.input, got, tt.match)
			}
		})
	}
}

// TestKeywordScrubLengthPreserving tests the offset-preservation
// contract of the last-resort stage.
func TestKeywordScrubLengthPreserving(t *testing.T) {
	t.Parallel()

	s := newKeywordScrub()
	input := []byte("prefix j4v4scr1pt middle p0wershell suffix")
	res, err := s.apply(input)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.output) != len(input) {
		t.Fatalf("length changed: %d -> %d", len(input), len(res.output))
	}
	if string(res.output[:7]) != "prefix " {
		t.Errorf("untouched prefix altered: %q", res.output[:7])
	}
	if len(res.removed) == 0 {
		t.Error("no removals recorded")
	}
}

// TestKeywordScrubCleanInput tests the no-op path.
func TestKeywordScrubCleanInput(t *testing.T) {
	t.Parallel()

	s := newKeywordScrub()
	input := []byte("an entirely benign byte sequence")
	res, err := s.apply(input)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.removed) != 0 {
		t.Errorf("removals on clean input: %v", res.removed)
	}
	if string(res.output) != string(input) {
		t.Error("clean input altered")
	}
}
