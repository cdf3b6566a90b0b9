package composite

import (
	"fmt"
	"math"

	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/pkg/config"
	"github.com/wonny/quantscore/pkg/logger"
)

// Calculator blends category scores into one composite score. Sentiment
// never participates: the composite reflects price and fundamental
// factors only, and that exclusion is a fixed business rule.
type Calculator struct {
	baseWeights   map[contracts.Category]float64
	minCategories int
	logger        *logger.Logger
}

// NewCalculator creates a calculator from the configured base weights.
// The weights are validated to sum to 1.0 at config load time.
func NewCalculator(weights config.CategoryWeights, minCategories int, log *logger.Logger) *Calculator {
	return &Calculator{
		baseWeights: map[contracts.Category]float64{
			contracts.CategoryMomentum:    weights.Momentum,
			contracts.CategoryValue:       weights.Value,
			contracts.CategoryQuality:     weights.Quality,
			contracts.CategoryGrowth:      weights.Growth,
			contracts.CategoryStability:   weights.Stability,
			contracts.CategoryPositioning: weights.Positioning,
		},
		minCategories: minCategories,
		logger:        log.WithField("module", "composite"),
	}
}

// Combine merges the present category scores under re-normalized
// weights. It returns a nil composite when fewer than the minimum
// number of categories scored; sparse data must not produce a
// confident-looking number. The returned weight map holds the weights
// actually applied; they sum to 1.0 whenever the composite is non-nil.
//
// A NaN or Inf in the inputs or the result is a logic bug upstream and
// is surfaced as an error, never coerced into a plausible value.
func (c *Calculator) Combine(ticker string, scores contracts.CategoryScores) (*float64, map[contracts.Category]float64, error) {
	present := make(map[contracts.Category]float64)
	var weightSum float64

	for _, cat := range contracts.CompositeCategories() {
		score := scores[cat]
		if score == nil {
			continue
		}
		if math.IsNaN(*score) || math.IsInf(*score, 0) {
			return nil, nil, fmt.Errorf("category %s for %s is not finite: %v", cat, ticker, *score)
		}
		present[cat] = *score
		weightSum += c.baseWeights[cat]
	}

	if len(present) < c.minCategories {
		c.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"present":  len(present),
			"required": c.minCategories,
		}).Debug("Too few categories for composite")
		return nil, nil, nil
	}

	if weightSum <= 0 {
		return nil, nil, fmt.Errorf("applied weight sum for %s is not positive: %v", ticker, weightSum)
	}

	// Re-normalize the surviving weights proportionally so they again
	// sum to 1.0. Summation follows the fixed category order: float
	// addition is not associative, so ranging over the map here would
	// make the last bit of the composite depend on iteration order.
	applied := make(map[contracts.Category]float64, len(present))
	var composite float64
	for _, cat := range contracts.CompositeCategories() {
		score, ok := present[cat]
		if !ok {
			continue
		}
		w := c.baseWeights[cat] / weightSum
		applied[cat] = w
		composite += score * w
	}

	if math.IsNaN(composite) || math.IsInf(composite, 0) {
		return nil, nil, fmt.Errorf("composite for %s is not finite: %v", ticker, composite)
	}

	// Correct math keeps the composite inside [0,100] already; clamping
	// only absorbs floating-point drift, and a real clamp is logged as
	// the logic bug it would be.
	if composite < 0 || composite > 100 {
		c.logger.WithFields(map[string]interface{}{
			"ticker":    ticker,
			"composite": composite,
		}).Error("Composite outside [0,100], clamping")
		composite = math.Min(100, math.Max(0, composite))
	}

	return &composite, applied, nil
}
