package runner

import (
	"sync"

	"mapfbench/internal/trial"
)

// Job executes one planned trial and returns its raw table row.
type Job func() (trial.RawRow, error)

// RunPool executes jobs with at most maxWorkers in flight, streaming every
// produced row to rows in completion order. Returned errors are execution
// failures; rows for solver-level failures are data and flow through rows
// like any other. The caller closes rows after RunPool returns.
func RunPool(maxWorkers int, jobs []Job, rows chan<- trial.RawRow) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, maxWorkers)

	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			row, err := job()
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			rows <- row
		}(job)
	}

	wg.Wait()
	return errs
}
