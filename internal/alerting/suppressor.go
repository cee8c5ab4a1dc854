package alerting

import (
	"fmt"
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/observability/metrics"
)

// Suppressor decides whether a candidate alert is emitted. It layers
// three filters, cheapest first: the recency window, per-type context
// rules, then the confidence floor. Timing state is process-lifetime
// only and never persisted.
type Suppressor struct {
	// recent maps "storeID|type" to the last allowed emission time.
	// Entries expire after an hour and are purged lazily on each
	// allowed call.
	recent *gocache.Cache

	rules   map[AlertType]time.Duration // runtime window overrides
	rulesMu sync.RWMutex

	now     func() time.Time // injectable for deterministic tests
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewSuppressor creates a Suppressor. metrics may be nil.
func NewSuppressor(log logger.Logger, m *metrics.Metrics) *Suppressor {
	return &Suppressor{
		// Cleanup interval 0 disables the janitor goroutine; expired
		// entries are evicted by DeleteExpired on allowed calls.
		recent:  gocache.New(suppressionEntryTTL, 0),
		rules:   make(map[AlertType]time.Duration),
		now:     time.Now,
		log:     log,
		metrics: m,
	}
}

// SetRule installs a custom suppression window for one alert type,
// overriding its default. A non-positive window removes the override.
func (s *Suppressor) SetRule(alertType AlertType, window time.Duration) {
	s.rulesMu.Lock()
	defer s.rulesMu.Unlock()
	if window <= 0 {
		delete(s.rules, alertType)
		return
	}
	s.rules[alertType] = window
}

// ShouldSuppress reports whether the candidate alert should be dropped.
// On an allowed call it records the emission time for the (storeID,
// type) key and opportunistically purges stale timing entries.
func (s *Suppressor) ShouldSuppress(storeID string, alertType AlertType, ctx *AlertContext) bool {
	key := suppressionKey(storeID, alertType)

	if reason := s.check(key, alertType, ctx); reason != "" {
		s.metrics.IncSuppressed(reason)
		s.log.Debug("alert suppressed",
			logger.String("store_id", storeID),
			logger.String("type", string(alertType)),
			logger.String("reason", reason))
		return true
	}

	s.recent.Set(key, s.now(), gocache.DefaultExpiration)
	s.recent.DeleteExpired()
	return false
}

// check runs the layered filters and returns the suppression reason, or
// "" when the candidate is allowed. First true wins, short-circuits.
func (s *Suppressor) check(key string, alertType AlertType, ctx *AlertContext) string {
	if s.inWindow(key, alertType, ctx) {
		return ReasonWindow
	}
	if suppressedByContext(alertType, ctx) {
		return ReasonContext
	}
	if s.belowConfidenceFloor(alertType, ctx) {
		return ReasonConfidence
	}
	return ""
}

// inWindow reports whether the last allowed emission for this key is
// more recent than the applicable suppression window.
func (s *Suppressor) inWindow(key string, alertType AlertType, ctx *AlertContext) bool {
	v, found := s.recent.Get(key)
	if !found {
		return false
	}
	last, ok := v.(time.Time)
	if !ok {
		return false
	}
	return s.now().Sub(last) < s.windowFor(alertType, ctx)
}

// windowFor resolves the suppression window: explicit override if set,
// else the type default, halved during business hours for equipment and
// temperature alerts (staff on site can respond faster, so escalate
// sooner).
func (s *Suppressor) windowFor(alertType AlertType, ctx *AlertContext) time.Duration {
	s.rulesMu.RLock()
	window, overridden := s.rules[alertType]
	s.rulesMu.RUnlock()

	if !overridden {
		switch alertType {
		case TypeEmptyShelf:
			window = WindowEmptyShelf
		case TypeTemperature:
			window = WindowTemperature
		case TypeEquipmentFailure:
			window = WindowEquipmentFailure
		default:
			window = WindowDefault
		}
	}

	if ctx != nil && ctx.IsBusinessHours &&
		(alertType == TypeEquipmentFailure || alertType == TypeTemperature) {
		window /= 2
	}
	return window
}

// suppressedByContext applies per-type semantic false-positive rules.
func suppressedByContext(alertType AlertType, ctx *AlertContext) bool {
	if ctx == nil {
		return false
	}
	switch alertType {
	case TypeEmptyShelf:
		// A person at the shelf usually means active restocking.
		if ctx.PersonDetected {
			return true
		}
		if ctx.FillPercent != nil && *ctx.FillPercent > 20 {
			return true
		}
		// Minor shortfall outside business hours is low priority.
		if !ctx.IsBusinessHours && ctx.FillPercent != nil && *ctx.FillPercent > 10 {
			return true
		}
	case TypeTemperature:
		if ctx.Temperature == nil {
			return false
		}
		deviation := math.Abs(*ctx.Temperature)
		// Noise floor regardless of hours.
		if deviation < 1 {
			return true
		}
		if ctx.IsBusinessHours && deviation < 3 {
			return true
		}
	case TypeEquipmentFailure:
		// Never suppressed by context.
	}
	return false
}

// belowConfidenceFloor applies the statistical confidence gate when the
// candidate carries a confidence value.
func (s *Suppressor) belowConfidenceFloor(alertType AlertType, ctx *AlertContext) bool {
	if ctx == nil || ctx.Confidence == nil {
		return false
	}
	return *ctx.Confidence < confidenceFloor(alertType)
}

func confidenceFloor(alertType AlertType) float64 {
	switch alertType {
	case TypeEmptyShelf:
		return ConfidenceFloorEmptyShelf
	case TypeTemperature:
		return ConfidenceFloorTemperature
	case TypeEquipmentFailure:
		return ConfidenceFloorEquipmentFailure
	default:
		return ConfidenceFloorDefault
	}
}

func suppressionKey(storeID string, alertType AlertType) string {
	return fmt.Sprintf("%s|%s", storeID, alertType)
}
