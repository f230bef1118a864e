// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one periodic task. Spec is a cron expression or a descriptor such
// as "@every 10m".
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler wraps a cron runner. Runs of the same job never overlap.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers job. It fails on an invalid spec or a duplicate name.
func (s *Scheduler) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[job.Name]; ok {
		return errors.Errorf("scheduler: job %q already registered", job.Name)
	}
	id, err := s.cron.AddFunc(job.Spec, s.wrap(job))
	if err != nil {
		return errors.Wrapf(err, "scheduler: invalid spec %q for job %q", job.Spec, job.Name)
	}
	s.entries[job.Name] = id
	s.log.Info("scheduled job", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

// wrap runs job with its timeout and logs the outcome.
func (s *Scheduler) wrap(job Job) func() {
	return func() {
		timeout := job.Timeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.log.Warn("job failed", zap.String("job", job.Name), zap.Error(err))
			return
		}
		s.log.Debug("job done", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	}
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
