package pipeline

// partition splits tickers into fixed-size batches. The final batch may
// be smaller. Batching bounds memory and gives the run natural progress
// checkpoints.
func partition(tickers []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	batches := make([][]string, 0, (len(tickers)+size-1)/size)
	for start := 0; start < len(tickers); start += size {
		end := start + size
		if end > len(tickers) {
			end = len(tickers)
		}
		batches = append(batches, tickers[start:end])
	}
	return batches
}
