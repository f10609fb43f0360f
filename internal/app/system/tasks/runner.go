// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/stratafight/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Job is a background task run once at Start and then on its interval.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero uses timeouts.Job().
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// JobStatus is the last known state of a registered job.
type JobStatus struct {
	Name         string        `json:"name"`
	Running      bool          `json:"running"`
	Runs         int           `json:"runs"`
	LastStarted  *time.Time    `json:"last_started,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}

// Runner executes registered jobs on their intervals until stopped.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	status map[string]*JobStatus
}

// New creates a new task runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		status: make(map[string]*JobStatus),
	}
}

// Register adds a job to the runner. Register before Start.
func (r *Runner) Register(job Job) {
	if job.Interval <= 0 {
		job.Interval = time.Hour
	}
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &JobStatus{Name: job.Name}
	r.mu.Unlock()
}

// Start launches one goroutine per registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}

	r.logger.Info("background task runner started",
		zap.Strings("jobs", r.Names()))
}

// Stop cancels the jobs and waits for them within ctx's deadline.
// It returns ctx.Err() when a job does not finish in time.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		var stuck []string
		for _, s := range r.Status() {
			if s.Running {
				stuck = append(stuck, s.Name)
			}
		}
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", stuck))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

// execute runs one iteration of job under its timeout and records the outcome.
func (r *Runner) execute(parent context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = timeouts.Job()
	}
	ctx, cancel := timeouts.WithTimeout(parent, timeout, r.logger, job.Name)
	defer cancel()

	start := time.Now()
	r.update(job.Name, func(s *JobStatus) {
		s.Running = true
		s.LastStarted = &start
	})

	err := job.Run(ctx)
	elapsed := time.Since(start)

	r.update(job.Name, func(s *JobStatus) {
		s.Running = false
		s.Runs++
		s.LastDuration = elapsed
		s.LastError = ""
		if err != nil {
			s.LastError = err.Error()
		}
	})

	switch {
	case err != nil && parent.Err() != nil:
		r.logger.Debug("job cancelled during shutdown",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed))
	case err != nil:
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed),
			zap.Error(err))
	default:
		r.logger.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed))
	}
	return err
}

func (r *Runner) update(name string, fn func(s *JobStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.status[name]
	if !ok {
		s = &JobStatus{Name: name}
		r.status[name] = s
	}
	fn(s)
}

// Names returns the registered job names in registration order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name)
	}
	return names
}

// Status returns a copy of every job's status, sorted by name.
func (r *Runner) Status() []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]JobStatus, 0, len(r.status))
	for _, s := range r.status {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunOnce executes the named job immediately, recording it like a scheduled run.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.execute(ctx, job)
		}
	}
	return fmt.Errorf("tasks: no job named %q", name)
}
