package scoring

// Scores holds the six 0-100 dimension scores of a product.
type Scores struct {
	Trend       float64 `json:"trend_score"`
	Profit      float64 `json:"profit_score"`
	Competition float64 `json:"competition_score"`
	Demand      float64 `json:"demand_score"`
	Quality     float64 `json:"quality_score"`
	Shipping    float64 `json:"shipping_score"`
}

// Weights are the relative contributions of each dimension. Competition is
// inverted: a low competition score raises the overall score.
type Weights struct {
	Trend       float64
	Profit      float64
	Competition float64
	Demand      float64
	Quality     float64
	Shipping    float64
}

var DefaultWeights = Weights{
	Trend:       0.25,
	Profit:      0.25,
	Competition: 0.15,
	Demand:      0.20,
	Quality:     0.10,
	Shipping:    0.05,
}

// Overall computes the weighted score, clamped to [0, 100].
func (w Weights) Overall(s Scores) float64 {
	total := s.Trend*w.Trend +
		s.Profit*w.Profit +
		(100-s.Competition)*w.Competition +
		s.Demand*w.Demand +
		s.Quality*w.Quality +
		s.Shipping*w.Shipping
	return clamp(total, 0, 100)
}

// Overall computes the weighted score with DefaultWeights.
func Overall(s Scores) float64 {
	return DefaultWeights.Overall(s)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
