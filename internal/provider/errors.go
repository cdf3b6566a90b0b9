package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError classifies a provider failure. Transient failures (5xx,
// timeout, connection reset, 429) are eligible for retry with backoff;
// permanent failures (other 4xx, malformed response) are not retried
// within the same run.
type FetchError struct {
	Ticker     string
	StatusCode int // zero when the failure was not an HTTP status
	Transient  bool
	Err        error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s failure (status %d): %v", e.Ticker, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s failure: %v", e.Ticker, kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTransient wraps err as a retryable fetch failure
func NewTransient(ticker string, err error) *FetchError {
	return &FetchError{Ticker: ticker, Transient: true, Err: err}
}

// NewPermanent wraps err as a non-retryable fetch failure
func NewPermanent(ticker string, err error) *FetchError {
	return &FetchError{Ticker: ticker, Transient: false, Err: err}
}

// IsTransient reports whether err should be retried. Timeouts and
// cancelled deadlines count as transient even when not wrapped in a
// FetchError.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// ClassifyStatus maps an HTTP status code to transient/permanent.
// 5xx and 429 are transient; all other 4xx are permanent.
func ClassifyStatus(status int) bool {
	return status >= 500 || status == 429
}
