package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name    string
		tickers []string
		size    int
		want    [][]string
	}{
		{
			name:    "empty input",
			tickers: nil,
			size:    3,
			want:    [][]string{},
		},
		{
			name:    "even split",
			tickers: []string{"A", "B", "C", "D"},
			size:    2,
			want:    [][]string{{"A", "B"}, {"C", "D"}},
		},
		{
			name:    "uneven final batch",
			tickers: []string{"A", "B", "C", "D", "E"},
			size:    2,
			want:    [][]string{{"A", "B"}, {"C", "D"}, {"E"}},
		},
		{
			name:    "batch larger than input",
			tickers: []string{"A", "B"},
			size:    10,
			want:    [][]string{{"A", "B"}},
		},
		{
			name:    "invalid size falls back to one",
			tickers: []string{"A", "B"},
			size:    0,
			want:    [][]string{{"A"}, {"B"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partition(tt.tickers, tt.size))
		})
	}
}
