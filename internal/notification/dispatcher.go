package notification

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shelfwatch/shelfwatch/internal/alerting"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/observability/metrics"
)

const (
	// sendTimeout bounds a single delivery attempt.
	sendTimeout = 10 * time.Second
	// DefaultDrainInterval is the default queue drain tick.
	DefaultDrainInterval = 2 * time.Second
)

// Drop reasons for metrics.
const (
	dropReasonNotReady = "provider_not_ready"
	dropReasonSendErr  = "send_error"
)

// Chimer plays an audible cue after urgent deliveries. Best-effort;
// failures are ignored.
type Chimer interface {
	Chime()
}

// Dispatcher drains a FIFO alert queue to the delivery provider, one
// entry per tick, so burst notification rate is bounded independently of
// alert production rate. Entries that cannot be delivered are dropped,
// never retried: the queue trades completeness for bounded memory.
type Dispatcher struct {
	mu    sync.Mutex
	queue []*alerting.Alert

	provider Provider
	chimer   Chimer
	interval time.Duration
	limiter  *rate.Limiter
	log      logger.Logger
	metrics  *metrics.Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	startMu  sync.Mutex
	started  bool
}

// NewDispatcher creates a Dispatcher draining every interval. chimer and
// m may be nil.
func NewDispatcher(provider Provider, chimer Chimer, interval time.Duration,
	log logger.Logger, m *metrics.Metrics) *Dispatcher {
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	return &Dispatcher{
		provider: provider,
		chimer:   chimer,
		interval: interval,
		// The limiter caps sustained throughput at one delivery per
		// interval even if ticks arrive faster than expected.
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		log:     log,
		metrics: m,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Enqueue appends an alert to the FIFO queue. Never blocks.
func (d *Dispatcher) Enqueue(alert *alerting.Alert) {
	select {
	case <-d.stopCh:
		return
	default:
	}
	d.mu.Lock()
	d.queue = append(d.queue, alert)
	d.mu.Unlock()
}

// QueueLen returns the number of alerts awaiting dispatch.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Start launches the drain loop. Safe to call once; later calls no-op.
func (d *Dispatcher) Start() {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.drainLoop()
}

// Stop cancels the drain loop and waits for it to exit. An in-flight
// delivery is allowed to complete; its result is discarded.
func (d *Dispatcher) Stop() {
	d.startMu.Lock()
	started := d.started
	d.startMu.Unlock()

	d.stopOnce.Do(func() { close(d.stopCh) })
	if started {
		<-d.done
	}
}

func (d *Dispatcher) drainLoop() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if d.limiter.Allow() {
				d.DrainOne()
			}
		case <-d.stopCh:
			return
		}
	}
}

// DrainOne pops and delivers at most one queued alert. Exported so tests
// can drive the queue without real time.
func (d *Dispatcher) DrainOne() {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return
	}
	alert := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	if d.provider == nil || !d.provider.Ready() {
		d.metrics.IncDropped(dropReasonNotReady)
		d.log.Debug("dropping notification, delivery not ready",
			logger.String("alert_id", alert.ID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := d.provider.Send(ctx, BuildPayload(alert)); err != nil {
		d.metrics.IncDropped(dropReasonSendErr)
		d.log.Error("notification delivery failed",
			logger.String("alert_id", alert.ID),
			logger.Error(err))
		return
	}

	d.metrics.IncSent()
	if d.chimer != nil &&
		(alert.Severity == alerting.SeverityCritical || alert.Severity == alerting.SeverityHigh) {
		d.chimer.Chime()
	}
}
