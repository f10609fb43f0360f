package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/stratafight/internal/app/system/tasks"
	"go.uber.org/zap"
)

func stop(t *testing.T, runner *tasks.Runner, within time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), within)
	defer cancel()
	return runner.Stop(ctx)
}

func TestRunner_StartAndStop(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var runs atomic.Int32
	ran := make(chan struct{}, 1)
	runner.Register(tasks.Job{
		Name:     "tick",
		Interval: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})

	runner.Start()
	<-ran

	if err := stop(t, runner, 5*time.Second); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if runs.Load() < 1 {
		t.Errorf("runs = %d, want at least 1", runs.Load())
	}
}

func TestRunner_StopTimesOutOnStuckJob(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	runner.Register(tasks.Job{
		Name:     "stuck",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(entered)
			<-release // ignores ctx
			return nil
		},
	})

	runner.Start()
	<-entered

	if err := stop(t, runner, 50*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want DeadlineExceeded", err)
	}
}

func TestRunner_JobContextCancelledOnStop(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	started := make(chan struct{})
	cancelled := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "waiter",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		},
	})

	runner.Start()
	<-started

	if err := stop(t, runner, 5*time.Second); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Error("job context was not cancelled")
	}
}

func TestRunner_RunOnceRecordsStatus(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	fail := errors.New("mongo unavailable")

	var calls atomic.Int32
	runner.Register(tasks.Job{
		Name:     "flaky",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			if calls.Add(1) == 1 {
				return fail
			}
			return nil
		},
	})

	ctx := context.Background()
	if err := runner.RunOnce(ctx, "flaky"); !errors.Is(err, fail) {
		t.Fatalf("first RunOnce() error = %v, want %v", err, fail)
	}
	st := runner.Status()
	if len(st) != 1 || st[0].Runs != 1 || st[0].LastError != fail.Error() || st[0].LastStarted == nil {
		t.Errorf("status after failure = %+v", st)
	}

	if err := runner.RunOnce(ctx, "flaky"); err != nil {
		t.Fatalf("second RunOnce() error = %v", err)
	}
	st = runner.Status()
	if st[0].Runs != 2 || st[0].LastError != "" || st[0].Running {
		t.Errorf("status after success = %+v", st[0])
	}
}

func TestRunner_RunOnce_NotFound(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	if err := runner.RunOnce(context.Background(), "nonexistent-job"); err == nil {
		t.Error("RunOnce() for nonexistent job should return an error")
	}
}

func TestRunner_JobTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	runner.Register(tasks.Job{
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	err := runner.RunOnce(context.Background(), "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunOnce() error = %v, want DeadlineExceeded", err)
	}
}

func TestRunner_Names(t *testing.T) {
	runner := tasks.New(zap.NewNop())
	runner.Register(tasks.Job{Name: "b", Run: func(context.Context) error { return nil }})
	runner.Register(tasks.Job{Name: "a", Interval: time.Minute, Run: func(context.Context) error { return nil }})

	names := runner.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("Names() = %v, want [b a]", names)
	}
	st := runner.Status()
	if len(st) != 2 || st[0].Name != "a" {
		t.Errorf("Status() = %+v, want sorted by name", st)
	}
}
