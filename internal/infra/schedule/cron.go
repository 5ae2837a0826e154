// Package schedule runs the periodic maintenance jobs on a seconds-precision
// cron.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one named unit of periodic work.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs registered jobs. A job never overlaps with its own previous
// run; a slow run makes the next tick a no-op.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	jobs   map[string]cron.EntryID
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Add registers job. The cron expression uses six fields, seconds first, or a
// descriptor such as "@every 1h".
func (s *Scheduler) Add(job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.runOnce(job)
	}))
	id, err := s.cron.AddJob(job.Spec, wrapped)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs[job.Name] = id
	s.mu.Unlock()
	s.logger.Info("job scheduled", "job", job.Name, "spec", job.Spec)
	return nil
}

// Next reports when job fires next; false when it is unknown.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) runOnce(job Job) {
	ctx := s.ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("job finished", "job", job.Name, "duration", time.Since(start))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
