package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/profilematch/core"
)

// RunPartitioned splits urls into at most partitions contiguous chunks and
// runs each chunk as an independent Run on a worker pool. The schema is
// initialized once up front. Results are merged in input order; chunks that
// fail contribute no results and their errors are joined.
func (o *Orchestrator) RunPartitioned(ctx context.Context, urls []string, initializeSchema bool, partitions int) (*core.ScrapeSummary, error) {
	if len(urls) == 0 {
		return &core.ScrapeSummary{Results: []*core.ScrapeResult{}}, nil
	}
	if initializeSchema {
		if err := o.initializeSchema(ctx); err != nil {
			return nil, err
		}
	}

	chunks := partition(urls, partitions)
	if len(chunks) == 1 {
		return o.Run(ctx, chunks[0], false)
	}

	pool, err := ants.NewPool(min(o.poolSize, len(chunks)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	summaries := make([]*core.ScrapeSummary, len(chunks))
	errs := make([]error, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			summaries[i], errs[i] = o.Run(ctx, chunk, false)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit partition %d: %w", i, submitErr)
		}
	}
	wg.Wait()

	merged := &core.ScrapeSummary{Results: make([]*core.ScrapeResult, 0, len(urls))}
	merged.Merge(summaries...)
	if err := errors.Join(errs...); err != nil {
		o.logger.Error("partitioned run had failing partitions", "err", err)
		return merged, err
	}
	return merged, nil
}

// partition splits items into at most n contiguous chunks of near-equal size.
func partition(items []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	n = min(n, len(items))
	size := (len(items) + n - 1) / n
	chunks := make([][]string, 0, n)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
