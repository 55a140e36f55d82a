// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrUnknownJob is returned by Trigger for unregistered job names.
var ErrUnknownJob = errors.New("unknown job")

// JobTimeout bounds a single job run.
const JobTimeout = 5 * time.Minute

// Job is a named unit of periodic work.
type Job struct {
	Name        string
	Description string
	Schedule    string // standard five-field cron expression or descriptor such as "@daily"
	Run         func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	LastError   string
	NextRun     time.Time
}

type registeredJob struct {
	Job
	entryID   cron.EntryID
	mu        sync.Mutex
	lastRun   time.Time
	lastError string
}

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	mu     sync.RWMutex
	jobs   map[string]*registeredJob
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add registers a job. Names must be unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	rj := &registeredJob{Job: job}
	id, err := s.cron.AddFunc(job.Schedule, func() {
		_ = s.run(context.Background(), rj)
	})
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", job.Name, err)
	}
	rj.entryID = id
	s.jobs[job.Name] = rj
	return nil
}

func (s *Scheduler) run(ctx context.Context, rj *registeredJob) error {
	ctx, cancel := context.WithTimeout(ctx, JobTimeout)
	defer cancel()

	start := time.Now()
	err := rj.Run(ctx)

	rj.mu.Lock()
	rj.lastRun = start
	rj.lastError = ""
	if err != nil {
		rj.lastError = err.Error()
	}
	rj.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", rj.Name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", rj.Name, "duration", time.Since(start))
	return nil
}

// Trigger runs a job immediately, outside its schedule.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	rj, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, rj)
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, rj := range s.jobs {
		rj.mu.Lock()
		info := JobInfo{
			Name:        rj.Name,
			Description: rj.Description,
			Schedule:    rj.Schedule,
			LastRun:     rj.lastRun,
			LastError:   rj.lastError,
			NextRun:     s.cron.Entry(rj.entryID).Next,
		}
		rj.mu.Unlock()
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
