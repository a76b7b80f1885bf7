package layout

import "sort"

// FontStats summarizes a document's font-size distribution. Computed once
// per document and passed explicitly through the pipeline; classification
// thresholds derive from it rather than from global constants.
type FontStats struct {
	Median float64
	P75    float64
	P90    float64
	Max    float64
	Mean   float64
}

// ComputeFontStats computes font-size statistics over a document's blocks.
// Returns the zero value for an empty document.
func ComputeFontStats(blocks []TextBlock) FontStats {
	if len(blocks) == 0 {
		return FontStats{}
	}

	sizes := make([]float64, 0, len(blocks))
	sum := 0.0
	for _, b := range blocks {
		sizes = append(sizes, b.FontSize)
		sum += b.FontSize
	}
	sort.Float64s(sizes)

	return FontStats{
		Median: quantile(sizes, 0.50),
		P75:    quantile(sizes, 0.75),
		P90:    quantile(sizes, 0.90),
		Max:    sizes[len(sizes)-1],
		Mean:   sum / float64(len(sizes)),
	}
}

// quantile returns the q-quantile of sorted values using nearest-rank.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}
