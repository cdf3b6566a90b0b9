package universe

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/quantscore/internal/contracts"
)

// SPAC name patterns; asset_type is authoritative but listings are messy
var spacPattern = regexp.MustCompile(`(?i)(SPAC|acquisition corp|blank check)`)

// Builder loads the symbol universe for a run and applies eligibility
// filtering. Funds and SPACs are supposed to be filtered upstream, but
// the filter runs again here so a stale upstream list cannot leak
// ineligible symbols into scoring.
type Builder struct {
	db     *pgxpool.Pool
	config Config
}

// Config holds universe filter criteria
type Config struct {
	ExcludeFunds   bool
	ExcludeSPACs   bool
	ExcludeSectors []string
}

// DefaultConfig returns the standard eligibility filter
func DefaultConfig() Config {
	return Config{
		ExcludeFunds: true,
		ExcludeSPACs: true,
	}
}

// NewBuilder creates a new universe builder
func NewBuilder(db *pgxpool.Pool, config Config) *Builder {
	return &Builder{
		db:     db,
		config: config,
	}
}

// GetUniverse loads active symbols and applies the eligibility filter
func (b *Builder) GetUniverse(ctx context.Context, date time.Time) (*contracts.Universe, error) {
	universe := &contracts.Universe{
		Date:     date,
		Symbols:  make([]contracts.Symbol, 0),
		Excluded: make(map[string]string),
	}

	symbols, err := b.getActiveSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active symbols: %w", err)
	}

	for _, symbol := range symbols {
		reason := b.checkExclusion(symbol)
		if reason != "" {
			universe.Excluded[symbol.Ticker] = reason
			continue
		}
		universe.Symbols = append(universe.Symbols, symbol)
	}

	return universe, nil
}

// getActiveSymbols retrieves all active symbols ordered by ticker
func (b *Builder) getActiveSymbols(ctx context.Context) ([]contracts.Symbol, error) {
	query := `
		SELECT ticker, name, COALESCE(sector, ''), asset_type
		FROM scores.symbols
		WHERE status = 'active'
		ORDER BY ticker
	`

	rows, err := b.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]contracts.Symbol, 0)
	for rows.Next() {
		var s contracts.Symbol
		var assetType string
		if err := rows.Scan(&s.Ticker, &s.Name, &s.Sector, &assetType); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		s.AssetType = contracts.AssetType(assetType)
		symbols = append(symbols, s)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate symbols: %w", rows.Err())
	}

	return symbols, nil
}

// checkExclusion returns a non-empty reason when a symbol is ineligible
func (b *Builder) checkExclusion(symbol contracts.Symbol) string {
	if b.config.ExcludeFunds && symbol.AssetType == contracts.AssetFund {
		return "fund"
	}

	if b.config.ExcludeSPACs && (symbol.AssetType == contracts.AssetSPAC || spacPattern.MatchString(symbol.Name)) {
		return "SPAC"
	}

	for _, sector := range b.config.ExcludeSectors {
		if symbol.Sector == sector {
			return fmt.Sprintf("excluded sector (%s)", sector)
		}
	}

	return ""
}
