package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantscore/internal/contracts"
)

// snapshot builds a stats snapshot directly, bypassing ComputeStats, so
// individual normalization steps can be pinned to exact values.
func snapshot(stats map[contracts.MetricName]MetricStats) *UniverseStats {
	return &UniverseStats{cfg: testCfg, stats: stats}
}

func unitStats() MetricStats {
	return MetricStats{Count: 10, Lower: -10, Upper: 10, Mean: 0, StdDev: 1}
}

func TestMetricScore(t *testing.T) {
	ascending := contracts.MetricDef{Name: contracts.MetricReturn1M, Category: contracts.CategoryMomentum, Direction: contracts.Ascending}

	tests := []struct {
		name  string
		stats MetricStats
		value float64
		want  float64
	}{
		{
			name:  "at the mean scores 50",
			stats: unitStats(),
			value: 0,
			want:  50,
		},
		{
			name:  "one sigma above",
			stats: unitStats(),
			value: 1,
			want:  normalCDF(1) * 100,
		},
		{
			name:  "one sigma below",
			stats: unitStats(),
			value: -1,
			want:  normalCDF(-1) * 100,
		},
		{
			name:  "extreme value clamps at +3 sigma",
			stats: unitStats(),
			value: 8,
			want:  normalCDF(3) * 100,
		},
		{
			name:  "extreme value clamps at -3 sigma",
			stats: unitStats(),
			value: -8,
			want:  normalCDF(-3) * 100,
		},
		{
			name:  "winsorization bound applies before z-score",
			stats: MetricStats{Count: 10, Lower: -2, Upper: 2, Mean: 0, StdDev: 1},
			value: 50,
			want:  normalCDF(2) * 100,
		},
		{
			name:  "zero variance scores neutral",
			stats: MetricStats{Count: 5, Lower: 7, Upper: 7, Mean: 7, StdDev: 0},
			value: 7,
			want:  50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(snapshot(map[contracts.MetricName]MetricStats{ascending.Name: tt.stats}))
			score := n.MetricScore(ascending, tt.value)
			require.NotNil(t, score)
			assert.InDelta(t, tt.want, *score, 1e-9)
			assert.GreaterOrEqual(t, *score, 0.0)
			assert.LessOrEqual(t, *score, 100.0)
		})
	}
}

func TestMetricScore_DescendingFlips(t *testing.T) {
	def := contracts.MetricDef{Name: contracts.MetricPERatio, Category: contracts.CategoryValue, Direction: contracts.Descending}
	n := New(snapshot(map[contracts.MetricName]MetricStats{def.Name: unitStats()}))

	// A cheap stock (low P/E) must score high
	low := n.MetricScore(def, -1)
	high := n.MetricScore(def, 1)
	require.NotNil(t, low)
	require.NotNil(t, high)

	assert.Greater(t, *low, *high)
	assert.InDelta(t, 100-normalCDF(1)*100, *high, 1e-9)
}

func TestMetricScore_TooFewSamples(t *testing.T) {
	def := contracts.MetricDef{Name: contracts.MetricBeta, Category: contracts.CategoryStability, Direction: contracts.Descending}
	n := New(snapshot(map[contracts.MetricName]MetricStats{
		def.Name: {Count: 1},
	}))

	assert.Nil(t, n.MetricScore(def, 1.2))
}

func TestCategoryScore(t *testing.T) {
	stats := map[contracts.MetricName]MetricStats{
		contracts.MetricReturn1M: unitStats(),
		contracts.MetricReturn3M: unitStats(),
	}
	n := New(snapshot(stats))

	bag := contracts.NewRawMetricBag("AAA")
	bag.Set(contracts.MetricReturn1M, 0) // 50
	bag.Set(contracts.MetricReturn3M, 1) // ~84.13

	score := n.CategoryScore(contracts.CategoryMomentum, bag)
	require.NotNil(t, score)
	assert.InDelta(t, (50+normalCDF(1)*100)/2, *score, 1e-9)
}

func TestCategoryScore_AllMissingIsNil(t *testing.T) {
	n := New(snapshot(map[contracts.MetricName]MetricStats{}))

	bag := contracts.NewRawMetricBag("AAA")
	assert.Nil(t, n.CategoryScore(contracts.CategoryGrowth, bag))
}

func TestCategoryScore_UnusableMetricsPropagateNull(t *testing.T) {
	// Metrics are present in the bag but the universe population is too
	// small to rank against; the category must stay null, not default.
	n := New(snapshot(map[contracts.MetricName]MetricStats{
		contracts.MetricRevenueGrowthYoY: {Count: 1},
		contracts.MetricFCFGrowthYoY:     {Count: 0},
	}))

	bag := contracts.NewRawMetricBag("AAA")
	bag.Set(contracts.MetricRevenueGrowthYoY, 0.3)
	bag.Set(contracts.MetricFCFGrowthYoY, 0.1)

	assert.Nil(t, n.CategoryScore(contracts.CategoryGrowth, bag))
}

func TestScoreBag_CoversAllCategories(t *testing.T) {
	n := New(snapshot(map[contracts.MetricName]MetricStats{
		contracts.MetricReturn1M:      unitStats(),
		contracts.MetricNewsSentiment: unitStats(),
	}))

	bag := contracts.NewRawMetricBag("AAA")
	bag.Set(contracts.MetricReturn1M, 1)
	bag.Set(contracts.MetricNewsSentiment, -1)

	scores := n.ScoreBag(bag)

	assert.Len(t, scores, len(contracts.AllCategories()))
	assert.NotNil(t, scores[contracts.CategoryMomentum])
	assert.NotNil(t, scores[contracts.CategorySentiment])
	assert.Nil(t, scores[contracts.CategoryValue])
	assert.Nil(t, scores[contracts.CategoryQuality])
}

func TestScoreBag_LowVarianceCluster(t *testing.T) {
	// 40% of the universe reports exactly zero FCF growth. The scores
	// must stay finite and inside [0,100] despite the value cluster.
	bags := make([]*contracts.RawMetricBag, 10)
	for i := range bags {
		bag := contracts.NewRawMetricBag(string(rune('A' + i)))
		if i < 4 {
			bag.Set(contracts.MetricFCFGrowthYoY, 0)
		} else {
			bag.Set(contracts.MetricFCFGrowthYoY, 0.01*float64(i))
		}
		bags[i] = bag
	}

	us := ComputeStats(bags, testCfg)
	n := New(us)

	for _, bag := range bags {
		scores := n.ScoreBag(bag)
		growth := scores[contracts.CategoryGrowth]
		require.NotNil(t, growth, "ticker %s", bag.Ticker)
		assert.False(t, math.IsNaN(*growth))
		assert.False(t, math.IsInf(*growth, 0))
		assert.GreaterOrEqual(t, *growth, 0.0)
		assert.LessOrEqual(t, *growth, 100.0)
	}
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.8413, normalCDF(1), 1e-4)
	assert.InDelta(t, 0.1587, normalCDF(-1), 1e-4)
	assert.InDelta(t, 0.9987, normalCDF(3), 1e-4)
}
