package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/quantscore/internal/contracts"
)

func TestCheckExclusion(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		symbol contracts.Symbol
		want   string
	}{
		{
			name:   "ordinary equity passes",
			config: DefaultConfig(),
			symbol: contracts.Symbol{Ticker: "AAPL", Name: "Apple Inc", Sector: "Technology", AssetType: contracts.AssetEquity},
			want:   "",
		},
		{
			name:   "fund excluded by asset type",
			config: DefaultConfig(),
			symbol: contracts.Symbol{Ticker: "SPY", Name: "SPDR S&P 500 ETF", AssetType: contracts.AssetFund},
			want:   "fund",
		},
		{
			name:   "SPAC excluded by asset type",
			config: DefaultConfig(),
			symbol: contracts.Symbol{Ticker: "XYZA", Name: "XYZ Holdings", AssetType: contracts.AssetSPAC},
			want:   "SPAC",
		},
		{
			name:   "SPAC caught by name when mislabeled",
			config: DefaultConfig(),
			symbol: contracts.Symbol{Ticker: "ACQQ", Name: "Churchill Acquisition Corp III", AssetType: contracts.AssetEquity},
			want:   "SPAC",
		},
		{
			name:   "blank check company caught by name",
			config: DefaultConfig(),
			symbol: contracts.Symbol{Ticker: "BLNK", Name: "Special Blank Check Co", AssetType: contracts.AssetEquity},
			want:   "SPAC",
		},
		{
			name:   "fund passes when filter disabled",
			config: Config{ExcludeFunds: false, ExcludeSPACs: true},
			symbol: contracts.Symbol{Ticker: "SPY", Name: "SPDR S&P 500 ETF", AssetType: contracts.AssetFund},
			want:   "",
		},
		{
			name:   "excluded sector",
			config: Config{ExcludeSectors: []string{"Utilities"}},
			symbol: contracts.Symbol{Ticker: "DUK", Name: "Duke Energy", Sector: "Utilities", AssetType: contracts.AssetEquity},
			want:   "excluded sector (Utilities)",
		},
		{
			name:   "other sector passes",
			config: Config{ExcludeSectors: []string{"Utilities"}},
			symbol: contracts.Symbol{Ticker: "AAPL", Name: "Apple Inc", Sector: "Technology", AssetType: contracts.AssetEquity},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(nil, tt.config)
			assert.Equal(t, tt.want, b.checkExclusion(tt.symbol))
		})
	}
}
