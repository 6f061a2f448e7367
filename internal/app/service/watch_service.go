package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
	"github.com/peterhaasme/time-portfolio/internal/app/refresh"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

var (
	// ErrWatchNotFound is returned for unknown or expired session ids.
	ErrWatchNotFound = errors.New("watch session not found")
	// ErrTooManyWatches is returned when the session limit is reached.
	ErrTooManyWatches = errors.New("too many watch sessions")
)

// WatchConfig bounds the session store.
type WatchConfig struct {
	IdleTTL     time.Duration // 0 keeps sessions until stopped
	MaxSessions int           // 0 means unlimited
	Refresh     refresh.Options
}

type watchSession struct {
	id     string
	driver *refresh.Driver
	cancel context.CancelFunc

	mu       sync.RWMutex
	latest   presenter.View
	rendered bool
}

func (s *watchSession) Render(view presenter.View) {
	s.mu.Lock()
	s.latest = view
	s.rendered = true
	s.mu.Unlock()
}

func (s *watchSession) view() (presenter.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.rendered
}

// WatchService runs one refresh driver per session. Sessions live in a
// go-cache; touching a session extends its idle TTL and eviction stops its driver.
type WatchService struct {
	portfolio port.PortfolioService
	tokens    []entity.TokenDescriptor
	cfg       WatchConfig
	metrics   port.Metrics
	logger    port.Logger

	sessions *cache.Cache
	startMu  sync.Mutex
	wg       sync.WaitGroup
}

// NewWatchService creates a WatchService. Nil metrics and logger are allowed.
func NewWatchService(portfolio port.PortfolioService, tokens []entity.TokenDescriptor, cfg WatchConfig, metrics port.Metrics, logger port.Logger) *WatchService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = port.NopLogger{}
	}

	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if cfg.IdleTTL > 0 {
		expiration, cleanup = cfg.IdleTTL, cfg.IdleTTL/2
	}

	w := &WatchService{
		portfolio: portfolio,
		tokens:    tokens,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		sessions:  cache.New(expiration, cleanup),
	}
	w.sessions.OnEvicted(func(id string, v any) {
		if s, ok := v.(*watchSession); ok {
			s.cancel()
		}
		w.metrics.SetActiveWatches(w.sessions.ItemCount())
		w.logger.Info("Watch session stopped", "id", id)
	})
	return w
}

// Start opens a session for address and returns its id.
func (w *WatchService) Start(address string) (string, error) {
	w.startMu.Lock()
	defer w.startMu.Unlock()

	if w.cfg.MaxSessions > 0 && w.sessions.ItemCount() >= w.cfg.MaxSessions {
		return "", fmt.Errorf("%w: limit is %d", ErrTooManyWatches, w.cfg.MaxSessions)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &watchSession{id: uuid.New().String(), cancel: cancel}
	s.driver = refresh.NewDriver(w.portfolio, w.tokens, s, w.cfg.Refresh, w.metrics, w.logger)
	s.driver.SetAddress(address)

	w.sessions.SetDefault(s.id, s)
	w.metrics.SetActiveWatches(w.sessions.ItemCount())

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		_ = s.driver.Run(ctx)
	}()

	w.logger.Info("Watch session started", "id", s.id, "address", address)
	return s.id, nil
}

// Update changes the watched address of a session.
func (w *WatchService) Update(id, address string) error {
	s, err := w.touch(id)
	if err != nil {
		return err
	}
	s.driver.SetAddress(address)
	return nil
}

// Latest returns the most recently rendered view of a session. The view is
// empty until the first computation finishes.
func (w *WatchService) Latest(id string) (presenter.View, bool) {
	s, err := w.touch(id)
	if err != nil {
		return presenter.View{}, false
	}
	view, rendered := s.view()
	if !rendered {
		view.Address = s.driver.Address()
	}
	return view, true
}

// Stop ends a session.
func (w *WatchService) Stop(id string) error {
	if _, ok := w.sessions.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrWatchNotFound, id)
	}
	w.sessions.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (w *WatchService) Count() int {
	return w.sessions.ItemCount()
}

// Close stops every session and waits for the drivers to exit.
func (w *WatchService) Close() {
	for id := range w.sessions.Items() {
		w.sessions.Delete(id)
	}
	w.wg.Wait()
}

// touch looks a session up and resets its idle timer.
func (w *WatchService) touch(id string) (*watchSession, error) {
	v, ok := w.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWatchNotFound, id)
	}
	s := v.(*watchSession)
	w.sessions.SetDefault(id, s)
	return s, nil
}
