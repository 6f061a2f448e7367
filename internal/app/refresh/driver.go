// Package refresh re-computes a portfolio on input changes and on a timer,
// rendering only the result of the most recently started computation.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

// DefaultInterval matches the page refresh period users are used to.
const DefaultInterval = 60 * time.Second

// Renderer displays a view. Calls are serialized.
type Renderer interface {
	Render(view presenter.View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(view presenter.View)

func (f RendererFunc) Render(view presenter.View) { f(view) }

// Options tune the driver. Zero Interval means DefaultInterval; zero Debounce
// starts a computation on every input change.
type Options struct {
	Interval time.Duration
	Debounce time.Duration
}

// Driver owns the refresh loop of one displayed portfolio.
type Driver struct {
	service  port.PortfolioService
	tokens   []entity.TokenDescriptor
	renderer Renderer
	opts     Options
	metrics  port.Metrics
	logger   port.Logger

	changed chan struct{}

	mu         sync.Mutex
	address    string
	generation uint64
	cancelRun  context.CancelFunc
}

// NewDriver creates a Driver. Nil metrics and logger are allowed.
func NewDriver(service port.PortfolioService, tokens []entity.TokenDescriptor, renderer Renderer, opts Options, metrics port.Metrics, logger port.Logger) *Driver {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &Driver{
		service:  service,
		tokens:   tokens,
		renderer: renderer,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
		changed:  make(chan struct{}, 1),
	}
}

// SetAddress records new input. It never blocks; a pending change is coalesced.
func (d *Driver) SetAddress(address string) {
	d.mu.Lock()
	d.address = address
	d.mu.Unlock()

	select {
	case d.changed <- struct{}{}:
	default:
	}
}

// Address returns the current input.
func (d *Driver) Address() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.address
}

// Run computes once immediately and then on every timer tick and input change
// until ctx is done. In-flight computations are cancelled and awaited before
// Run returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	var (
		wg       sync.WaitGroup
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		d.mu.Lock()
		if d.cancelRun != nil {
			d.cancelRun()
		}
		d.mu.Unlock()
		wg.Wait()
	}()

	// The first computation already sees any address set before Run.
	select {
	case <-d.changed:
	default:
	}
	d.start(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.changed:
			if d.opts.Debounce <= 0 {
				d.start(ctx, &wg)
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(d.opts.Debounce)
			} else {
				debounce.Reset(d.opts.Debounce)
			}
			fire = debounce.C
		case <-fire:
			fire = nil
			d.start(ctx, &wg)
		case <-ticker.C:
			d.start(ctx, &wg)
		}
	}
}

// start launches a computation for the current input and supersedes the previous one.
func (d *Driver) start(ctx context.Context, wg *sync.WaitGroup) {
	runCtx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.cancelRun != nil {
		d.cancelRun()
	}
	d.generation++
	gen := d.generation
	address := d.address
	d.cancelRun = cancel
	d.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		snapshot, err := d.service.ComputeSnapshot(runCtx, address, d.tokens)
		if ctx.Err() != nil {
			return
		}
		d.deliver(gen, snapshot, err)
	}()
}

// deliver renders the result only if no newer computation has started.
// Rendering happens under the lock so views never arrive out of order.
func (d *Driver) deliver(gen uint64, snapshot entity.PortfolioSnapshot, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.generation {
		d.metrics.IncStaleDiscarded()
		d.logger.Debug("Discarding stale portfolio result", "generation", gen, "latest", d.generation)
		return
	}
	if err != nil {
		d.logger.Warn("Portfolio refreshed with errors", "holder", snapshot.Holder, "error", err)
	}
	d.renderer.Render(presenter.Build(snapshot))
}
