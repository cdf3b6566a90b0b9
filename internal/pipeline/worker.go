package pipeline

import (
	"context"

	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/internal/provider"
)

// fetchState tracks one symbol through the retry state machine:
// pending -> fetching -> (succeeded | backoff -> fetching | failed)
type fetchState int

const (
	statePending fetchState = iota
	stateFetching
	stateBackoff
	stateSucceeded
	stateFailed
)

// fetchResult is the terminal record for one symbol's fetch
type fetchResult struct {
	Ticker   string
	Bag      *contracts.RawMetricBag
	Outcome  contracts.SymbolOutcome
	Attempts int
	Err      error
}

// fetchSymbol drives one symbol to a terminal state. Transient failures
// are retried with backoff up to MaxRetries; permanent failures stop
// immediately. Either way the symbol ends as no_data and the run moves
// on; a single symbol never aborts the batch.
func (p *Pipeline) fetchSymbol(ctx context.Context, ticker string) fetchResult {
	result := fetchResult{Ticker: ticker}
	state := statePending

	var lastErr error
	retries := 0

	for {
		switch state {
		case statePending:
			state = stateFetching

		case stateFetching:
			result.Attempts++
			bag, err := p.provider.Fetch(ctx, ticker)
			if err == nil {
				if bag == nil || bag.Len() == 0 {
					result.Outcome = contracts.OutcomeNoData
					state = stateFailed
					continue
				}
				result.Bag = bag
				result.Outcome = contracts.OutcomeSucceeded
				state = stateSucceeded
				continue
			}

			lastErr = err
			if ctx.Err() != nil {
				// Run cancelled; don't burn the retry budget
				result.Outcome = contracts.OutcomeErrored
				state = stateFailed
				continue
			}
			if !provider.IsTransient(err) {
				p.logger.WithError(err).WithField("ticker", ticker).Warn("Permanent fetch failure")
				result.Outcome = contracts.OutcomeNoData
				state = stateFailed
				continue
			}
			if retries >= p.cfg.MaxRetries {
				p.logger.WithError(err).WithFields(map[string]interface{}{
					"ticker":  ticker,
					"retries": retries,
				}).Warn("Retry budget exhausted")
				result.Outcome = contracts.OutcomeNoData
				state = stateFailed
				continue
			}
			state = stateBackoff

		case stateBackoff:
			delay := p.backoff.Delay(retries)
			retries++
			p.logger.WithFields(map[string]interface{}{
				"ticker":  ticker,
				"attempt": retries,
				"delay":   delay,
			}).Debug("Backing off before retry")
			if err := p.sleep(ctx, delay); err != nil {
				lastErr = err
				result.Outcome = contracts.OutcomeErrored
				state = stateFailed
				continue
			}
			state = stateFetching

		case stateSucceeded:
			return result

		case stateFailed:
			result.Err = lastErr
			return result
		}
	}
}

// fetchBatch runs the worker pool over one batch and returns the
// per-symbol results keyed by ticker
func (p *Pipeline) fetchBatch(ctx context.Context, tickers []string) map[string]fetchResult {
	tickerCh := make(chan string, len(tickers))
	resultCh := make(chan fetchResult, len(tickers))

	workers := p.cfg.EffectiveWorkers()
	if workers > len(tickers) {
		workers = len(tickers)
	}

	for i := 0; i < workers; i++ {
		go func() {
			for ticker := range tickerCh {
				resultCh <- p.fetchSymbol(ctx, ticker)
			}
		}()
	}

	for _, ticker := range tickers {
		tickerCh <- ticker
	}
	close(tickerCh)

	results := make(map[string]fetchResult, len(tickers))
	for range tickers {
		r := <-resultCh
		results[r.Ticker] = r
	}
	return results
}
