package normalize

import (
	"math"

	"github.com/wonny/quantscore/internal/contracts"
)

// Normalizer converts raw metric values into 0-100 percentile scores
// against the universe statistics snapshot.
type Normalizer struct {
	cfg   Config
	stats *UniverseStats
}

// New creates a normalizer bound to a stats snapshot
func New(stats *UniverseStats) *Normalizer {
	return &Normalizer{cfg: stats.cfg, stats: stats}
}

// MetricScore maps one raw value to a 0-100 percentile, or nil when the
// metric's universe population is too small to rank against.
//
// Pipeline per value: clip to the winsorization bounds, z-score against
// the winsorized mean/stddev, clamp the z-score, map through the
// standard normal CDF, and flip for descending metrics.
func (n *Normalizer) MetricScore(def contracts.MetricDef, value float64) *float64 {
	stats, ok := n.stats.Get(def.Name)
	if !ok || !stats.Usable() {
		return nil
	}

	clipped := clip(value, stats.Lower, stats.Upper)

	var z float64
	if stats.StdDev > 0 {
		z = (clipped - stats.Mean) / stats.StdDev
	}
	// Zero-variance population: every value is the distribution, z = 0

	if z > n.cfg.ZScoreClamp {
		z = n.cfg.ZScoreClamp
	} else if z < -n.cfg.ZScoreClamp {
		z = -n.cfg.ZScoreClamp
	}

	percentile := normalCDF(z) * 100
	if def.Direction == contracts.Descending {
		percentile = 100 - percentile
	}

	return &percentile
}

// CategoryScore averages the available metric percentiles for one
// category. When every metric in the category is null the category
// score is nil, never zero and never a neutral 50.
func (n *Normalizer) CategoryScore(category contracts.Category, bag *contracts.RawMetricBag) *float64 {
	var sum float64
	var count int

	for _, def := range contracts.MetricsFor(category) {
		value, ok := bag.Get(def.Name)
		if !ok {
			// Missing means missing; no default substitution
			continue
		}
		score := n.MetricScore(def, value)
		if score == nil {
			continue
		}
		sum += *score
		count++
	}

	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// ScoreBag computes every category score for one symbol's bag
func (n *Normalizer) ScoreBag(bag *contracts.RawMetricBag) contracts.CategoryScores {
	scores := make(contracts.CategoryScores, len(contracts.AllCategories()))
	for _, cat := range contracts.AllCategories() {
		scores[cat] = n.CategoryScore(cat, bag)
	}
	return scores
}

// normalCDF is the standard normal cumulative distribution function
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
