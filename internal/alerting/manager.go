package alerting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/conf"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/sensor"
)

// AlertSink receives materialized alerts for outbound delivery. The
// notification dispatcher implements it; the manager never owns the
// queue.
type AlertSink interface {
	Enqueue(alert *Alert)
}

// Manager orchestrates the pipeline: sensor reading → candidate
// threshold → suppression → store persistence → dispatch. It owns the
// polling loop and tears it down deterministically on Stop.
type Manager struct {
	store      *Store
	suppressor *Suppressor
	sink       AlertSink
	source     sensor.Source
	hours      conf.BusinessHoursSettings
	log        logger.Logger

	pollInterval time.Duration
	now          func() time.Time // injectable for deterministic tests

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	startMu  sync.Mutex
	started  bool
}

// NewManager wires the pipeline components. sink may be nil (alerts are
// persisted but not dispatched).
func NewManager(store *Store, suppressor *Suppressor, sink AlertSink, source sensor.Source,
	hours conf.BusinessHoursSettings, pollInterval time.Duration, log logger.Logger) *Manager {
	return &Manager{
		store:        store,
		suppressor:   suppressor,
		sink:         sink,
		source:       source,
		hours:        hours,
		log:          log,
		pollInterval: pollInterval,
		now:          time.Now,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the reading-processing loop. Safe to call once; later
// calls are no-ops.
func (m *Manager) Start() {
	m.startMu.Lock()
	defer m.startMu.Unlock()
	if m.started || m.source == nil {
		return
	}
	m.started = true
	go m.pollLoop()
}

// Stop shuts the polling loop down and waits for it to exit. In-flight
// reads are allowed to finish; their results are discarded.
func (m *Manager) Stop() {
	m.startMu.Lock()
	started := m.started
	m.startMu.Unlock()

	m.stopOnce.Do(func() { close(m.stopCh) })
	if started {
		<-m.done
	}
}

func (m *Manager) pollLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-m.stopCh
		cancel()
	}()

	for {
		select {
		case <-ticker.C:
			for _, reading := range m.source.Readings(ctx) {
				select {
				case <-m.stopCh:
					return
				default:
				}
				m.ProcessReading(&reading)
			}
		case <-m.stopCh:
			return
		}
	}
}

// ProcessReading runs one reading through the full pipeline. It returns
// the created alert, or nil when the reading fails validation, does not
// cross the candidate threshold, or is suppressed.
func (m *Manager) ProcessReading(r *sensor.Reading) *Alert {
	if !r.Valid() {
		m.log.Debug("dropping malformed reading",
			logger.String("source_id", r.SourceID),
			logger.String("kind", string(r.Kind)))
		return nil
	}

	draft, ctx := m.candidate(r)
	if draft == nil {
		return nil
	}
	ctx.IsBusinessHours = m.IsBusinessHours(m.now())

	if m.suppressor.ShouldSuppress(r.SourceID, draft.Type, ctx) {
		return nil
	}

	alert := m.store.Add(draft)
	if m.sink != nil {
		m.sink.Enqueue(alert)
	}
	return alert
}

// candidate applies the threshold policy: is this reading worth
// considering at all? Returns nil when below threshold.
func (m *Manager) candidate(r *sensor.Reading) (*Draft, *AlertContext) {
	switch r.Kind {
	case sensor.KindFillLevel:
		if r.Value >= FillCandidateThreshold {
			return nil, nil
		}
		fill := r.Value
		ctx := &AlertContext{
			FillPercent:    &fill,
			Confidence:     r.Confidence,
			PersonDetected: r.PersonDetected,
		}
		return &Draft{
			StoreID:   r.SourceID,
			StoreName: r.StoreName,
			Type:      TypeEmptyShelf,
			Title:     fmt.Sprintf("Low stock on shelf %s", r.Component),
			Message: fmt.Sprintf("Shelf %s at %s is %.0f%% full.\nRestock soon.",
				r.Component, r.StoreName, fill),
			Context:  ctx,
			Shelves:  []string{r.Component},
			ImageURL: r.ImageURL,
		}, ctx

	case sensor.KindTemperature:
		if math.Abs(r.Value) <= TempCandidateThreshold {
			return nil, nil
		}
		temp := r.Value
		ctx := &AlertContext{
			Temperature: &temp,
			Confidence:  r.Confidence,
		}
		direction := "above"
		if temp < 0 {
			direction = "below"
		}
		return &Draft{
			StoreID:   r.SourceID,
			StoreName: r.StoreName,
			Type:      TypeTemperature,
			Title:     fmt.Sprintf("Temperature deviation in %s", r.Component),
			Message: fmt.Sprintf("%s at %s is %.1f°C %s target.",
				componentLabel(r.Component), r.StoreName, math.Abs(temp), direction),
			Context:  ctx,
			Location: r.Component,
		}, ctx

	case sensor.KindEquipment:
		if !r.Equipment.Failed {
			return nil, nil
		}
		ctx := &AlertContext{Confidence: r.Confidence}
		return &Draft{
			StoreID:   r.SourceID,
			StoreName: r.StoreName,
			Type:      TypeEquipmentFailure,
			Title:     fmt.Sprintf("Equipment failure: %s", r.Component),
			Message: fmt.Sprintf("%s at %s reported %s (%s).",
				componentLabel(r.Component), r.StoreName, r.Equipment.Description, r.Equipment.Code),
			Context:  ctx,
			Location: r.Component,
		}, ctx

	default:
		return nil, nil
	}
}

// HandleAlertOpen is the click/deep-link path: when a user opens an
// alert (including via ?alert=<id>), the alert is marked read.
func (m *Manager) HandleAlertOpen(id string) {
	m.store.MarkAsRead(id)
}

// IsBusinessHours evaluates the configured time-of-day windows against
// local wall-clock time: weekdays 06:00-22:00 and weekends 07:00-21:00
// by default.
func (m *Manager) IsBusinessHours(t time.Time) bool {
	hour := t.Hour()
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return hour >= m.hours.WeekendStart && hour < m.hours.WeekendEnd
	default:
		return hour >= m.hours.WeekdayStart && hour < m.hours.WeekdayEnd
	}
}

func componentLabel(component string) string {
	if component == "" {
		return "Unit"
	}
	return strings.ToUpper(component[:1]) + component[1:]
}
