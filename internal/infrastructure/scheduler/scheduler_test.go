package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	return New(Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScheduler_RegisterRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "job"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "other"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "job"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "job"))
	assert.Equal(t, int64(1), job.runs.Load())

	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&countingJob{name: "job"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_RecordsFailures(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", err: errors.New("boom")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	sj := s.jobs["flaky"]
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	s.runJob(sj)

	result, ok := s.LastRun("flaky")
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
	assert.Equal(t, int64(1), sj.failCount)
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(5 * time.Minute)
	at := time.Date(2025, 11, 19, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(5*time.Minute), s.Next(at))
	assert.Equal(t, "@every 5m0s", s.String())
}

func TestDailySchedule_Next(t *testing.T) {
	s := NewDailySchedule(3, 30)

	before := time.Date(2025, 11, 19, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 11, 19, 3, 30, 0, 0, time.UTC), s.Next(before))

	after := time.Date(2025, 11, 19, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 11, 20, 3, 30, 0, 0, time.UTC), s.Next(after))

	exactly := time.Date(2025, 11, 19, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 11, 20, 3, 30, 0, 0, time.UTC), s.Next(exactly), "next is strictly after")
}
