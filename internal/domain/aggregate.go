package domain

// ReviewStats is the raw material of a book's aggregates.
type ReviewStats struct {
	Count int
	Sum   int
}

// Aggregate is the cached pair stored on a book row.
type Aggregate struct {
	ReviewCount   int
	AverageRating float64
}

// Aggregate derives the cached values from the stats.
func (s ReviewStats) Aggregate() Aggregate {
	return Aggregate{
		ReviewCount:   s.Count,
		AverageRating: RoundRating(s.Sum, s.Count),
	}
}

// RoundRating returns sum/count rounded half up to two decimals, or 0 when
// count is not positive. The rounding is done on integers:
// cents = (200*sum + count) / (2*count).
func RoundRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	cents := (200*sum + count) / (2 * count)
	return float64(cents) / 100
}
