package upgrade

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/logfields"
	"git.home.luguber.info/inful/sitemigrate/internal/model"
)

// Job is one document to upgrade in a batch.
type Job struct {
	Name     string
	Document *dom.Document
	Website  *model.Website
}

// Outcome pairs a job with its result or error.
type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// Batch upgrades independent documents with at most concurrency running at
// once. Outcomes are returned in job order. Jobs not started before ctx is
// cancelled report the context error.
func (u *Upgrader) Batch(ctx context.Context, jobs []Job, concurrency int) []Outcome {
	if concurrency < 1 {
		concurrency = 1
	}
	u.recorder.SetBatchConcurrency(concurrency)

	out := make([]Outcome, len(jobs))
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup
	for i, job := range jobs {
		out[i].Name = job.Name
		if err := sem.Acquire(ctx, 1); err != nil {
			out[i].Err = err
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			res, err := u.Upgrade(ctx, job.Document, job.Website)
			if err != nil {
				u.logger.Warn("Batch upgrade failed", logfields.Document(job.Name), logfields.Error(err))
			}
			out[i] = Outcome{Name: job.Name, Result: res, Err: err}
		}()
	}
	wg.Wait()
	return out
}
