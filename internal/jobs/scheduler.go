// Package jobs runs the periodic maintenance tasks: closing expired
// opportunities, purging old read notifications and resyncing the search index.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"go.uber.org/zap"
)

// Job is one named periodic task. Run returns the number of rows it touched.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// Scheduler runs jobs on cron schedules. A job still running when its next
// tick fires is skipped, and a panicking job is recovered and logged.
type Scheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]Job
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	cl := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs: make(map[string]Job),
	}
}

// Add registers job. The schedule uses the standard five field cron syntax
// or descriptors such as @hourly.
func (s *Scheduler) Add(job Job) error {
	if job.Timeout <= 0 {
		job.Timeout = 10 * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	if _, err := s.cron.AddFunc(job.Schedule, func() { s.execute(job) }); err != nil {
		return fmt.Errorf("invalid schedule for job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	return nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.mu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.mu.Unlock()

	logger.Log.Info("Starting job scheduler", zap.Strings("jobs", names))
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Log.Info("Job scheduler stopped")
	case <-ctx.Done():
		logger.Log.Warn("Job scheduler stop timed out with jobs still running")
	}
}

// RunNow executes the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) (int64, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("unknown job %q", name)
	}
	return s.execute(job)
}

func (s *Scheduler) execute(job Job) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()

	start := time.Now()
	rows, err := job.Run(ctx)
	m := metrics.Get().App
	if err != nil {
		m.JobRuns.WithLabelValues(job.Name, "error").Inc()
		logger.Log.Error("Job failed",
			zap.String("job", job.Name),
			logger.WithDuration(time.Since(start)),
			zap.Error(err),
		)
		return rows, err
	}

	m.JobRuns.WithLabelValues(job.Name, "success").Inc()
	m.JobRowsAffected.WithLabelValues(job.Name).Add(float64(rows))
	logger.Log.Info("Job completed",
		zap.String("job", job.Name),
		zap.Int64("rows_affected", rows),
		logger.WithDuration(time.Since(start)),
	)
	return rows, nil
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.SugaredLog.Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.SugaredLog.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
