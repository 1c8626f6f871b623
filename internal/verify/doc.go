// Package verify re-runs the detection pipeline over sanitized bytes
// and measures the risk delta against the original assessment.
//
// A negative delta means the sanitizer measurably reduced risk. A zero
// or positive delta on a file that had critical findings is a red flag
// worth surfacing: the disarm claimed success but the evidence says
// otherwise. Verification does not promise the sanitized file is
// benign; residual heuristic findings (entropy, keyword hits) can and
// do survive a correct disarm.
package verify
