package analyzer

import "math"

// Entropy sampling parameters. We sample the head of the file in fixed
// chunks: entropy of a 64KB prefix is a reliable packed-payload signal
// and keeps the cost independent of file size.
const (
	entropySampleSize = 64 * 1024
	entropyChunkSize  = 8 * 1024

	// entropyThreshold is the normalized Shannon entropy above which
	// content is considered packed/encrypted (7.2 of 8 bits).
	entropyThreshold = 0.9
)

// ChunkEntropy computes the Shannon entropy of the data head, normalized
// to [0,1]. The sample is split into fixed-size chunks and the mean of
// the per-chunk entropies is returned, so a short low-entropy header
// cannot mask a packed payload immediately following it.
func ChunkEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}
	sample := data
	if len(sample) > entropySampleSize {
		sample = sample[:entropySampleSize]
	}

	var total float64
	chunks := 0
	for off := 0; off < len(sample); off += entropyChunkSize {
		end := off + entropyChunkSize
		if end > len(sample) {
			end = len(sample)
		}
		total += shannon(sample[off:end])
		chunks++
	}
	return total / float64(chunks)
}

// shannon returns the normalized Shannon entropy of one chunk.
func shannon(chunk []byte) float64 {
	var freq [256]int
	for _, b := range chunk {
		freq[b]++
	}
	n := float64(len(chunk))
	var h float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	// 8 bits is the maximum entropy for a byte stream.
	return math.Min(1.0, h/8.0)
}
