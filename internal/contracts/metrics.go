package contracts

// Category is one factor family contributing to the composite score
type Category string

const (
	CategoryMomentum    Category = "momentum"
	CategoryValue       Category = "value"
	CategoryQuality     Category = "quality"
	CategoryGrowth      Category = "growth"
	CategoryStability   Category = "stability"
	CategoryPositioning Category = "positioning"

	// Sentiment is scored and stored but never enters the composite.
	// Fixed business rule, not configurable per run.
	CategorySentiment Category = "sentiment"
)

// CompositeCategories returns the categories eligible for the composite
// score, in stable order.
func CompositeCategories() []Category {
	return []Category{
		CategoryMomentum,
		CategoryValue,
		CategoryQuality,
		CategoryGrowth,
		CategoryStability,
		CategoryPositioning,
	}
}

// AllCategories returns every scored category, composite-eligible or not
func AllCategories() []Category {
	return append(CompositeCategories(), CategorySentiment)
}

// MetricName identifies a raw input metric. Using typed constants keeps a
// missing-metric bug a compile-time concern instead of a runtime lookup
// failure.
type MetricName string

const (
	// Momentum
	MetricReturn1M       MetricName = "return_1m"
	MetricReturn3M       MetricName = "return_3m"
	MetricReturn6M       MetricName = "return_6m"
	MetricRSI14          MetricName = "rsi_14"
	MetricVolumeChange1M MetricName = "volume_change_1m"

	// Value
	MetricPERatio  MetricName = "pe_ratio"
	MetricPBRatio  MetricName = "pb_ratio"
	MetricPSRatio  MetricName = "ps_ratio"
	MetricEVEBITDA MetricName = "ev_ebitda"
	MetricFCFYield MetricName = "fcf_yield"

	// Quality
	MetricReturnOnEquity  MetricName = "return_on_equity"
	MetricReturnOnCapital MetricName = "return_on_invested_capital"
	MetricGrossMargin     MetricName = "gross_margin"
	MetricOperatingMargin MetricName = "operating_margin"

	// Growth
	MetricRevenueGrowthYoY  MetricName = "revenue_growth_yoy"
	MetricEarningsGrowthYoY MetricName = "earnings_growth_yoy"
	MetricFCFGrowthYoY      MetricName = "fcf_growth_yoy"

	// Stability
	MetricBeta          MetricName = "beta"
	MetricVolatility90D MetricName = "volatility_90d"
	MetricDebtToEquity  MetricName = "debt_to_equity"
	MetricCurrentRatio  MetricName = "current_ratio"

	// Positioning
	MetricInstOwnershipChange MetricName = "institutional_ownership_change"
	MetricInsiderBuyRatio     MetricName = "insider_buy_ratio"
	MetricShortInterestRatio  MetricName = "short_interest_ratio"

	// Sentiment
	MetricNewsSentiment    MetricName = "news_sentiment"
	MetricAnalystSentiment MetricName = "analyst_sentiment"
)

// Direction states whether a higher raw value is better or worse.
// Descending metrics (pe_ratio, debt_to_equity, ...) have their
// percentile flipped after normalization.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// MetricDef describes one registered metric
type MetricDef struct {
	Name      MetricName
	Category  Category
	Direction Direction
}

// metricRegistry is the single source of truth for which metrics feed
// which category. Order within a category is stable.
var metricRegistry = []MetricDef{
	{MetricReturn1M, CategoryMomentum, Ascending},
	{MetricReturn3M, CategoryMomentum, Ascending},
	{MetricReturn6M, CategoryMomentum, Ascending},
	{MetricRSI14, CategoryMomentum, Ascending},
	{MetricVolumeChange1M, CategoryMomentum, Ascending},

	{MetricPERatio, CategoryValue, Descending},
	{MetricPBRatio, CategoryValue, Descending},
	{MetricPSRatio, CategoryValue, Descending},
	{MetricEVEBITDA, CategoryValue, Descending},
	{MetricFCFYield, CategoryValue, Ascending},

	{MetricReturnOnEquity, CategoryQuality, Ascending},
	{MetricReturnOnCapital, CategoryQuality, Ascending},
	{MetricGrossMargin, CategoryQuality, Ascending},
	{MetricOperatingMargin, CategoryQuality, Ascending},

	{MetricRevenueGrowthYoY, CategoryGrowth, Ascending},
	{MetricEarningsGrowthYoY, CategoryGrowth, Ascending},
	{MetricFCFGrowthYoY, CategoryGrowth, Ascending},

	{MetricBeta, CategoryStability, Descending},
	{MetricVolatility90D, CategoryStability, Descending},
	{MetricDebtToEquity, CategoryStability, Descending},
	{MetricCurrentRatio, CategoryStability, Ascending},

	{MetricInstOwnershipChange, CategoryPositioning, Ascending},
	{MetricInsiderBuyRatio, CategoryPositioning, Ascending},
	{MetricShortInterestRatio, CategoryPositioning, Descending},

	{MetricNewsSentiment, CategorySentiment, Ascending},
	{MetricAnalystSentiment, CategorySentiment, Ascending},
}

// MetricsFor returns the metric definitions feeding a category
func MetricsFor(category Category) []MetricDef {
	defs := make([]MetricDef, 0, 5)
	for _, def := range metricRegistry {
		if def.Category == category {
			defs = append(defs, def)
		}
	}
	return defs
}

// AllMetrics returns every registered metric definition in stable order
func AllMetrics() []MetricDef {
	out := make([]MetricDef, len(metricRegistry))
	copy(out, metricRegistry)
	return out
}

// RawMetricBag holds the raw metrics fetched for one symbol. Values are
// optional; a missing metric stays missing and is never defaulted.
// Bags are per-symbol and must not be shared between workers.
type RawMetricBag struct {
	Ticker string
	values map[MetricName]float64
}

// NewRawMetricBag creates an empty bag for a symbol
func NewRawMetricBag(ticker string) *RawMetricBag {
	return &RawMetricBag{
		Ticker: ticker,
		values: make(map[MetricName]float64),
	}
}

// Set records a metric value
func (b *RawMetricBag) Set(name MetricName, value float64) {
	b.values[name] = value
}

// Get returns a metric value and whether it is present
func (b *RawMetricBag) Get(name MetricName) (float64, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Len returns the number of present metrics
func (b *RawMetricBag) Len() int {
	return len(b.values)
}

// Completeness returns the fraction of registered metrics present
func (b *RawMetricBag) Completeness() float64 {
	total := len(metricRegistry)
	if total == 0 {
		return 0
	}
	return float64(len(b.values)) / float64(total)
}
