package contracts

import "time"

// CategoryScores maps each scored category to a 0-100 score, or nil when
// the category had no usable metrics. Never NaN/Inf.
type CategoryScores map[Category]*float64

// Present returns how many composite-eligible categories have a score
func (cs CategoryScores) Present() int {
	count := 0
	for _, cat := range CompositeCategories() {
		if cs[cat] != nil {
			count++
		}
	}
	return count
}

// ScoreRecord is the persisted output: one row per (symbol, as-of date).
// Re-running the pipeline for the same key replaces the row entirely.
type ScoreRecord struct {
	Ticker   string    `json:"ticker"`
	AsOfDate time.Time `json:"as_of_date"`

	// Composite is nil when fewer than the configured minimum number of
	// categories scored. Consumers must treat nil as "not available",
	// never as neutral.
	Composite *float64 `json:"composite,omitempty"`

	// AppliedWeights are the re-normalized weights actually used; they
	// sum to 1.0 whenever Composite is non-nil.
	AppliedWeights map[Category]float64 `json:"applied_weights,omitempty"`

	Categories CategoryScores `json:"categories"`

	// Sentiment is stored alongside but never blended into Composite
	Sentiment *float64 `json:"sentiment,omitempty"`

	// MetricInputs keeps the raw values for audit
	MetricInputs map[MetricName]float64 `json:"metric_inputs,omitempty"`

	// Completeness is the fraction of registered metrics that were present
	Completeness float64 `json:"completeness"`
}
