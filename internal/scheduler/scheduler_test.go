// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/uniblog/internal/model"
	"github.com/olegiv/uniblog/internal/service"
	"github.com/olegiv/uniblog/internal/store"
	"github.com/olegiv/uniblog/internal/testutil"
)

func TestScheduler_AddAndJobs(t *testing.T) {
	s := New(testutil.TestLoggerSilent())

	require.NoError(t, s.Add(Job{Name: "b", Schedule: "@hourly", Run: func(context.Context) error { return nil }}))
	require.NoError(t, s.Add(Job{Name: "a", Schedule: "*/5 * * * *", Run: func(context.Context) error { return nil }}))

	assert.Error(t, s.Add(Job{Name: "a", Schedule: "@daily", Run: func(context.Context) error { return nil }}), "duplicate name")
	assert.Error(t, s.Add(Job{Name: "c", Schedule: "not a schedule", Run: func(context.Context) error { return nil }}))
	assert.Error(t, s.Add(Job{Name: "d", Schedule: "@daily"}), "missing run func")

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "b", jobs[1].Name)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	require.NoError(t, s.Add(Job{Name: "noop", Schedule: "@daily", Run: func(context.Context) error { return nil }}))

	s.Start()
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.After(time.Now()))
	s.Stop()
}

func TestScheduler_Trigger(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	calls := 0
	boom := errors.New("boom")
	require.NoError(t, s.Add(Job{Name: "count", Schedule: "@daily", Run: func(context.Context) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}}))

	require.NoError(t, s.Trigger(context.Background(), "count"))
	assert.Equal(t, 1, calls)
	assert.False(t, s.Jobs()[0].LastRun.IsZero())

	assert.ErrorIs(t, s.Trigger(context.Background(), "count"), boom)
	assert.Equal(t, "boom", s.Jobs()[0].LastError)

	assert.ErrorIs(t, s.Trigger(context.Background(), "missing"), ErrUnknownJob)
}

func TestPurgeEventsJob(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	logger := testutil.TestLoggerSilent()

	q := store.New(db)
	for _, age := range []time.Duration{40 * 24 * time.Hour, time.Hour} {
		_, err := q.CreateEvent(ctx, store.CreateEventParams{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategorySystem,
			Message:   "tick",
			CreatedAt: time.Now().UTC().Add(-age),
		})
		require.NoError(t, err)
	}

	s := New(logger)
	require.NoError(t, s.Add(PurgeEventsJob(service.NewEventService(db, logger), 30*24*time.Hour, logger)))
	require.NoError(t, s.Trigger(ctx, JobPurgeEvents))

	events, err := q.ListEvents(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPurgeSessionsJob(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	logger := testutil.TestLoggerSilent()

	_, err := db.ExecContext(ctx, `INSERT INTO sessions (token, data, expiry) VALUES ('old', x'00', julianday('now') - 1)`)
	require.NoError(t, err)

	s := New(logger)
	require.NoError(t, s.Add(PurgeSessionsJob(store.New(db), logger)))
	require.NoError(t, s.Trigger(ctx, JobPurgeSessions))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n))
	assert.Zero(t, n)
}
