package normalize

import (
	"math"
	"sort"

	"github.com/wonny/quantscore/internal/contracts"
)

// MetricStats holds the per-metric population statistics for one run:
// winsorization bounds plus mean/stddev of the winsorized values.
type MetricStats struct {
	Count  int
	Lower  float64
	Upper  float64
	Mean   float64
	StdDev float64
}

// Usable reports whether the metric has enough samples to score.
// With fewer than 2 non-null values across the universe there is no
// distribution to rank against, so the metric propagates null.
func (s MetricStats) Usable() bool {
	return s.Count >= 2
}

// Config holds normalization parameters
type Config struct {
	WinsorizeLower float64 // e.g. 0.01
	WinsorizeUpper float64 // e.g. 0.99
	ZScoreClamp    float64 // e.g. 3.0
}

// UniverseStats is the read-only snapshot of per-metric statistics
// computed over the whole universe's fetched values. It is built once,
// after the fetch phase, and then shared by all scoring. Workers never
// mutate it, which keeps output independent of completion order.
type UniverseStats struct {
	cfg   Config
	stats map[contracts.MetricName]MetricStats
}

// ComputeStats builds the statistics snapshot from all fetched bags.
// Null (absent) values are dropped from each metric's population.
func ComputeStats(bags []*contracts.RawMetricBag, cfg Config) *UniverseStats {
	us := &UniverseStats{
		cfg:   cfg,
		stats: make(map[contracts.MetricName]MetricStats),
	}

	for _, def := range contracts.AllMetrics() {
		values := make([]float64, 0, len(bags))
		for _, bag := range bags {
			if bag == nil {
				continue
			}
			if v, ok := bag.Get(def.Name); ok {
				values = append(values, v)
			}
		}
		us.stats[def.Name] = computeMetricStats(values, cfg)
	}

	return us
}

// Get returns the stats for one metric
func (us *UniverseStats) Get(name contracts.MetricName) (MetricStats, bool) {
	s, ok := us.stats[name]
	return s, ok
}

// computeMetricStats winsorizes the sample and computes mean/stddev of
// the clipped values
func computeMetricStats(values []float64, cfg Config) MetricStats {
	stats := MetricStats{Count: len(values)}
	if len(values) < 2 {
		return stats
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats.Lower = quantile(sorted, cfg.WinsorizeLower)
	stats.Upper = quantile(sorted, cfg.WinsorizeUpper)

	// Mean and stddev over winsorized values, so a single extreme
	// outlier cannot distort the whole distribution
	var sum float64
	clipped := make([]float64, len(sorted))
	for i, v := range sorted {
		c := clip(v, stats.Lower, stats.Upper)
		clipped[i] = c
		sum += c
	}
	stats.Mean = sum / float64(len(clipped))

	var sqDiff float64
	for _, v := range clipped {
		d := v - stats.Mean
		sqDiff += d * d
	}
	stats.StdDev = math.Sqrt(sqDiff / float64(len(clipped)))

	return stats
}

// quantile returns the q-th quantile of a sorted slice using linear
// interpolation between closest ranks
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func clip(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
