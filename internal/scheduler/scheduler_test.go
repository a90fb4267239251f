package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/ledger"
)

type fakeSweeper struct {
	calls []time.Time
	err   error
}

func (f *fakeSweeper) EvaluateAll(_ context.Context, asOf time.Time) (ledger.SweepSummary, error) {
	f.calls = append(f.calls, asOf)
	return ledger.SweepSummary{AsOf: asOf, Scanned: 3, NewlyOverdue: 2, Defaulted: 1}, f.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every tuesday", &fakeSweeper{})
	require.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := New("@daily", sweeper)
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 2, 0, 5, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.Scanned)
	require.Equal(t, []time.Time{fixed}, sweeper.calls)

	sweeper.err = errors.New("order o-1: boom")
	_, err = s.RunOnce(context.Background())
	require.ErrorContains(t, err, "boom")
	require.Len(t, sweeper.calls, 2)
}

func TestStartStop(t *testing.T) {
	s, err := New("0 2 * * *", &fakeSweeper{})
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.ErrorIs(t, s.ctx.Err(), context.Canceled)
}
