package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/refresh"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

type instantPortfolio struct{}

func (instantPortfolio) ComputeSnapshot(_ context.Context, holder string, tokens []entity.TokenDescriptor) (entity.PortfolioSnapshot, error) {
	return NewPortfolioService(nil, nil, nil, 0, nil, nil).zeroSnapshot(holder, entity.AddressUnevaluated, tokens), nil
}

type gaugeRecorder struct {
	port.NopMetrics
	active atomic.Int64
}

func (g *gaugeRecorder) SetActiveWatches(n int) { g.active.Store(int64(n)) }

func newTestWatchService(cfg WatchConfig, m port.Metrics) *WatchService {
	cfg.Refresh = refresh.Options{Interval: time.Hour}
	return NewWatchService(instantPortfolio{}, allTokens, cfg, m, nil)
}

func TestWatchService_Lifecycle(t *testing.T) {
	metrics := &gaugeRecorder{}
	w := newTestWatchService(WatchConfig{}, metrics)
	defer w.Close()

	id, err := w.Start(holderChecksum)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.EqualValues(t, 1, metrics.active.Load())

	require.Eventually(t, func() bool {
		view, ok := w.Latest(id)
		return ok && view.Address == holderChecksum && len(view.Rows) == len(allTokens)
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, w.Update(id, deadAddress))
	require.Eventually(t, func() bool {
		view, _ := w.Latest(id)
		return view.Address == deadAddress
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, w.Stop(id))
	_, ok := w.Latest(id)
	assert.False(t, ok)
	assert.EqualValues(t, 0, metrics.active.Load())
	assert.ErrorIs(t, w.Stop(id), ErrWatchNotFound)
	assert.ErrorIs(t, w.Update(id, holderChecksum), ErrWatchNotFound)
}

func TestWatchService_IdleExpiry(t *testing.T) {
	w := newTestWatchService(WatchConfig{IdleTTL: 40 * time.Millisecond}, nil)
	defer w.Close()

	id, err := w.Start("")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, ok := w.Latest(id)
	assert.False(t, ok)
}

func TestWatchService_MaxSessions(t *testing.T) {
	w := newTestWatchService(WatchConfig{MaxSessions: 2}, nil)
	defer w.Close()

	first, err := w.Start(holderChecksum)
	require.NoError(t, err)
	_, err = w.Start(deadAddress)
	require.NoError(t, err)

	_, err = w.Start(holderLower)
	assert.ErrorIs(t, err, ErrTooManyWatches)

	require.NoError(t, w.Stop(first))
	_, err = w.Start(holderLower)
	assert.NoError(t, err)
}

func TestWatchService_CloseStopsAll(t *testing.T) {
	w := newTestWatchService(WatchConfig{}, nil)
	for i := 0; i < 3; i++ {
		_, err := w.Start(deadAddress)
		require.NoError(t, err)
	}
	w.Close()
	assert.Zero(t, w.Count())
}
