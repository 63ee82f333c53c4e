// Package jobmgr runs named background jobs with cancellation, status
// callbacks and in-memory tracking.
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    logger.Debug("job", zap.String("status", msg))
//	})
//
//	err := jm.Every(ctx, "sweep", time.Minute, func(ctx context.Context) error {
//	    registry.Sweep()
//	    return nil
//	})
//
//	// later...
//	jm.StopAll()
//
// No retries, no persistence. Jobs are removed automatically on completion.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrRunning = errors.New("job already running")

// Job represents a running unit of work.
type Job struct {
	Name    string
	Started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// StatusReporter receives lifecycle events for jobs, e.g.
//
//	running:sweep
//	error:sweep:registry closed
//	done:sweep
type StatusReporter func(string)

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	Reporter StatusReporter
}

// NewManager creates a new Manager. The reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// Start runs runner in its own goroutine under a context derived from ctx.
// Starting a name that is already running returns ErrRunning.
func (m *Manager) Start(ctx context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, name)
	}
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{Name: name, Started: time.Now(), cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = job
	m.mu.Unlock()

	go func() {
		defer close(job.done)
		defer cancel()

		m.report("running:" + name)
		if err := runner(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			m.report("error:" + name + ":" + err.Error())
		} else {
			m.report("done:" + name)
		}

		m.mu.Lock()
		if m.jobs[name] == job {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Every starts a job that calls tick once per interval until stopped.
// A tick error is reported and the loop keeps going.
func (m *Manager) Every(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	return m.Start(ctx, name, func(ctx context.Context) error {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				if err := tick(ctx); err != nil {
					m.report("error:" + name + ":" + err.Error())
				}
			}
		}
	})
}

// StopAll cancels every running job and waits for all of them.
func (m *Manager) StopAll() {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.jobs))
	for name, job := range m.jobs {
		jobs = append(jobs, job)
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	for _, job := range jobs {
		job.cancel()
	}
	for _, job := range jobs {
		<-job.done
	}
}

// List returns the sorted names of active jobs.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary such as "Running jobs: a, b".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
