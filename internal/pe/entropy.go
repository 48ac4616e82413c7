package pe

import "math"

// CalculateEntropy calculates Shannon entropy for a given data block.
// Entropy value ranges from 0 (completely uniform) to 8 (completely random).
// High entropy (>7.0) often indicates compressed or encrypted content.
func CalculateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	// Shannon entropy: H = -Σ(p(x) * log2(p(x)))
	var entropy float64
	dataLen := float64(len(data))

	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / dataLen
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// SectionEntropy calculates the entropy of a section's raw data. Raw ranges
// reaching past the image end are clamped; sections with no raw data score
// zero.
func SectionEntropy(img *Image, s Section) float64 {
	if s.RawSize == 0 {
		return 0.0
	}
	size := s.RawSize
	if uint64(s.RawOffset)+uint64(size) > uint64(img.Len()) {
		if uint64(s.RawOffset) >= uint64(img.Len()) {
			return 0.0
		}
		size = uint32(img.Len()) - s.RawOffset
	}
	data, err := img.Bytes(s.RawOffset, size)
	if err != nil {
		return 0.0
	}
	return CalculateEntropy(data)
}
