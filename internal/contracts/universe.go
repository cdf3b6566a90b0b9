package contracts

import "time"

// AssetType classifies a listed security
type AssetType string

const (
	AssetEquity AssetType = "equity"
	AssetFund   AssetType = "fund"
	AssetSPAC   AssetType = "spac"
)

// Symbol represents one security in the scoring universe.
// Static attributes only; the pipeline never mutates it.
type Symbol struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector"`
	AssetType AssetType `json:"asset_type"`
}

// Universe is the full set of symbols processed in one pipeline run
type Universe struct {
	Date    time.Time `json:"date"`
	Symbols []Symbol  `json:"symbols"`

	// Excluded maps ticker -> exclusion reason for symbols filtered out
	// during universe load (funds, SPACs, missing sector data)
	Excluded map[string]string `json:"excluded"`
}

// Tickers returns the tickers of all included symbols
func (u *Universe) Tickers() []string {
	tickers := make([]string, len(u.Symbols))
	for i, s := range u.Symbols {
		tickers[i] = s.Ticker
	}
	return tickers
}

// Count returns the number of included symbols
func (u *Universe) Count() int {
	return len(u.Symbols)
}
