package cron

import (
	"context"
	"sync"
	"time"
)

// Job defines a scheduled background task.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// JobState holds runtime state for a registered job.
type JobState struct {
	Job
	LastRun   time.Time
	LastError string
}

// Scheduler runs registered jobs on fixed intervals.
type Scheduler struct {
	mu   sync.Mutex
	jobs []*JobState
}

func New() *Scheduler {
	return &Scheduler{}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &JobState{Job: job})
}

// Start blocks until ctx is cancelled, running each job on its own ticker.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]*JobState, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, js := range jobs {
		wg.Add(1)
		go func(js *JobState) {
			defer wg.Done()
			ticker := time.NewTicker(js.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.run(ctx, js)
				}
			}
		}(js)
	}
	wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, js *JobState) {
	err := js.Fn(ctx)
	s.mu.Lock()
	js.LastRun = time.Now()
	if err != nil {
		js.LastError = err.Error()
	} else {
		js.LastError = ""
	}
	s.mu.Unlock()
}

// States returns a snapshot of all job states.
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.jobs))
	for _, js := range s.jobs {
		out = append(out, *js)
	}
	return out
}
