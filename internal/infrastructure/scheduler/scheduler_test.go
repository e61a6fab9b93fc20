package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestScheduler_AddAndTrigger(t *testing.T) {
	s := New(quietLogger())

	var runs atomic.Int32
	require.NoError(t, s.Add("reconcile", "@every 1h", func(ctx context.Context) error {
		runs.Add(1)
		return ctx.Err()
	}))
	require.NoError(t, s.Add("snapshot", "", func(context.Context) error { return nil }))

	require.NoError(t, s.Trigger("reconcile"))
	assert.Equal(t, int32(1), runs.Load())

	jobs := s.List()
	require.Len(t, jobs, 1, "an empty schedule disables the job")
	assert.Equal(t, "reconcile", jobs[0].Name)
	assert.Equal(t, "@every 1h", jobs[0].Schedule)

	assert.Error(t, s.Trigger("snapshot"))
}

func TestScheduler_RejectsBadAndDuplicateJobs(t *testing.T) {
	s := New(quietLogger())
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add("bad", "every tuesday", noop))
	require.NoError(t, s.Add("job", "@hourly", noop))
	assert.Error(t, s.Add("job", "@daily", noop))
}

func TestScheduler_TriggerReportsFailure(t *testing.T) {
	s := New(quietLogger())
	boom := errors.New("boom")
	require.NoError(t, s.Add("failing", "@hourly", func(context.Context) error { return boom }))

	assert.ErrorIs(t, s.Trigger("failing"), boom)
}

func TestScheduler_StartStopCancelsJobContext(t *testing.T) {
	s := New(quietLogger())
	require.NoError(t, s.Add("job", "@hourly", func(ctx context.Context) error { return ctx.Err() }))

	s.Start()
	require.Len(t, s.List(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.ErrorIs(t, s.Trigger("job"), context.Canceled)
}
