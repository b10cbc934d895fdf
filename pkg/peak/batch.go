package peak

import (
	"context"
	"fmt"
	"sync"
)

// DetectBatch runs Detect over independent chromatograms on up to workers
// goroutines. Each chromatogram is processed in a single pass by one worker;
// results are stored by input position. Cancellation is honored between
// chromatograms only.
func DetectBatch(ctx context.Context, inputs []Input, p Params, workers int) ([]*Detection, error) {
	if workers < 1 {
		workers = 1
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Detection, len(inputs))
	errs := make([]error, len(inputs))
	jobs := make(chan int, workers*2)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				det, err := Detect(inputs[idx], p)
				if err != nil {
					errs[idx] = fmt.Errorf("chromatogram %d: %w", idx, err)
					continue
				}
				results[idx] = det
			}
		}()
	}

feed:
	for idx := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
