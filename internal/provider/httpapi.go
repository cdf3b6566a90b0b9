package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/pkg/config"
	"github.com/wonny/quantscore/pkg/logger"
)

// HTTPProvider fetches raw metric bags from a JSON-over-HTTP metrics API.
// The wire format is one object per symbol with an optional value per
// registered metric; absent or null values stay absent in the bag.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewHTTPProvider creates a provider from config. The HTTP client carries
// no timeout of its own; the per-call timeout is applied by the
// rate-limited wrapper via context.
func NewHTTPProvider(cfg config.ProviderConfig, log *logger.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		logger:     log.WithField("module", "httpapi"),
	}
}

// metricsPayload is the provider's wire format
type metricsPayload struct {
	Ticker  string              `json:"ticker"`
	Metrics map[string]*float64 `json:"metrics"`
}

// Fetch retrieves the metric bag for one symbol
func (p *HTTPProvider) Fetch(ctx context.Context, ticker string) (*contracts.RawMetricBag, error) {
	endpoint := fmt.Sprintf("%s/v1/metrics/%s", p.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewPermanent(ticker, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Connection resets, DNS failures and timeouts are retryable
		return nil, NewTransient(ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		ferr := &FetchError{
			Ticker:     ticker,
			StatusCode: resp.StatusCode,
			Transient:  ClassifyStatus(resp.StatusCode),
			Err:        fmt.Errorf("unexpected status: %s", string(body)),
		}
		return nil, ferr
	}

	var payload metricsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// Malformed response is a data problem, not a service problem
		return nil, NewPermanent(ticker, fmt.Errorf("decode response: %w", err))
	}

	bag := contracts.NewRawMetricBag(ticker)
	for _, def := range contracts.AllMetrics() {
		if v, ok := payload.Metrics[string(def.Name)]; ok && v != nil {
			bag.Set(def.Name, *v)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"metrics": bag.Len(),
	}).Debug("Decoded metric payload")

	return bag, nil
}
