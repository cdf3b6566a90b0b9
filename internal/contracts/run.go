package contracts

import "time"

// SymbolOutcome is the terminal state of one symbol within a run
type SymbolOutcome string

const (
	OutcomeSucceeded SymbolOutcome = "succeeded"
	OutcomeNoData    SymbolOutcome = "no_data"
	OutcomeErrored   SymbolOutcome = "errored"
)

// BatchResult is the per-batch bookkeeping emitted after each batch
// completes. Ephemeral; used for progress reporting and for deciding
// whether to slow down.
type BatchResult struct {
	BatchID   int           `json:"batch_id"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	NoData    int           `json:"no_data"`
	Errored   int           `json:"errored"`
	Elapsed   time.Duration `json:"elapsed"`
}

// ErrorRate returns the fraction of attempted symbols that errored
func (b BatchResult) ErrorRate() float64 {
	if b.Attempted == 0 {
		return 0
	}
	return float64(b.Errored) / float64(b.Attempted)
}

// RunReport summarizes one full pipeline execution. Not persisted; the
// operational consumer is the end-of-run log event.
type RunReport struct {
	Date          time.Time     `json:"date"`
	TotalSymbols  int           `json:"total_symbols"`
	Succeeded     int           `json:"succeeded"`
	NoData        int           `json:"no_data"`
	Errored       int           `json:"errored"`
	Persisted     int           `json:"persisted"`
	PersistFailed int           `json:"persist_failed"`
	Elapsed       time.Duration `json:"elapsed"`

	Batches []BatchResult `json:"batches"`

	// Failures maps ticker -> last error message for failed symbols
	Failures map[string]string `json:"failures,omitempty"`
}
