package alerting

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch/internal/datastore"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/observability/metrics"
)

// persistKey is the datastore key holding the serialized alert collection.
const persistKey = "shelfwatch:alerts"

// Listener receives a full snapshot of the collection (newest first)
// after every mutating operation. Listeners are invoked synchronously
// inside the store's critical section and must not call back into the
// Store; they receive a defensive copy.
type Listener func(snapshot []Alert)

// Store owns the canonical, ordered (newest-first) alert collection.
// Each mutating operation completes fully, including persistence and
// listener notification, before the next one is admitted.
type Store struct {
	mu        sync.Mutex
	alerts    []*Alert
	listeners map[int]Listener
	nextSubID int

	kv        datastore.KV
	maxAlerts int
	log       logger.Logger
	metrics   *metrics.Metrics

	// Injectable for deterministic tests.
	now   func() time.Time
	newID func() string
}

// NewStore creates a Store persisting through kv and loads any existing
// collection, discarding malformed records. maxAlerts <= 0 selects the
// default retention cap. metrics may be nil.
func NewStore(kv datastore.KV, maxAlerts int, log logger.Logger, m *metrics.Metrics) *Store {
	if maxAlerts <= 0 {
		maxAlerts = DefaultMaxAlerts
	}
	s := &Store{
		listeners: make(map[int]Listener),
		kv:        kv,
		maxAlerts: maxAlerts,
		log:       log,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	s.load()
	return s
}

// load restores the persisted collection. Any record missing required
// fields is dropped so a corrupt entry can never break startup.
func (s *Store) load() {
	raw, ok := s.kv.Get(persistKey)
	if !ok {
		return
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.log.Warn("discarding unreadable persisted alerts", logger.Error(err))
		return
	}
	kept := make([]*Alert, 0, len(snap.Alerts))
	dropped := 0
	for i := range snap.Alerts {
		a := snap.Alerts[i]
		if !a.valid() {
			dropped++
			continue
		}
		kept = append(kept, &a)
	}
	s.alerts = kept
	if dropped > 0 {
		s.log.Warn("dropped malformed persisted alerts", logger.Int("count", dropped))
	}
}

// Add materializes a draft into a full Alert: synthesized ID, creation
// timestamp, read=false, and severity derived from the draft context.
// The alert is prepended (newest first), persisted, and listeners are
// notified. Returns the stored Alert.
func (s *Store) Add(draft *Draft) *Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert := &Alert{
		ID:                s.newID(),
		StoreID:           draft.StoreID,
		StoreName:         draft.StoreName,
		Type:              draft.Type,
		Severity:          Classify(draft.Type, draft.Context),
		Title:             draft.Title,
		Message:           draft.Message,
		Timestamp:         s.now(),
		Location:          draft.Location,
		Shelves:           draft.Shelves,
		ImageURL:          draft.ImageURL,
		AnnotatedImageURL: draft.AnnotatedImageURL,
	}
	if ctx := draft.Context; ctx != nil {
		alert.Temperature = ctx.Temperature
		alert.Confidence = ctx.Confidence
	}

	s.alerts = append([]*Alert{alert}, s.alerts...)
	s.persistLocked()
	s.notifyLocked()
	s.metrics.IncCreated(string(alert.Type), string(alert.Severity))

	s.log.Info("alert created",
		logger.String("id", alert.ID),
		logger.String("store_id", alert.StoreID),
		logger.String("type", string(alert.Type)),
		logger.String("severity", string(alert.Severity)))

	return alert
}

// MarkAsRead flips the read flag on one alert. No-op when the alert is
// absent or already read.
func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alerts {
		if a.ID == id {
			if a.Read {
				return
			}
			a.Read = true
			s.persistLocked()
			s.notifyLocked()
			return
		}
	}
}

// MarkAllAsRead flips every unread alert. Persists and notifies once,
// and only if anything changed, so repeated calls are idempotent.
func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, a := range s.alerts {
		if !a.Read {
			a.Read = true
			changed = true
		}
	}
	if changed {
		s.persistLocked()
		s.notifyLocked()
	}
}

// Delete removes one alert by ID.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			s.persistLocked()
			s.notifyLocked()
			return
		}
	}
}

// ClearAll removes every alert.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.alerts) == 0 {
		return
	}
	s.alerts = nil
	s.persistLocked()
	s.notifyLocked()
}

// Query returns a new ordered sequence of alerts matching every set
// filter field. Limit truncates from the head (most recent). The
// underlying collection is never mutated.
func (s *Store) Query(filter Filter) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Alert, 0)
	for _, a := range s.alerts {
		if !filter.matches(a) {
			continue
		}
		out = append(out, *a)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// Get returns one alert by ID.
func (s *Store) Get(id string) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alerts {
		if a.ID == id {
			return *a, true
		}
	}
	return Alert{}, false
}

// UnreadCount counts unread alerts, optionally scoped to one store.
// An empty storeID counts across all stores.
func (s *Store) UnreadCount(storeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, a := range s.alerts {
		if a.Read {
			continue
		}
		if storeID != "" && a.StoreID != storeID {
			continue
		}
		count++
	}
	return count
}

// Statistics summarizes the collection: totals, unread, per-type and
// per-severity counts, and alerts created in the last 24 hours.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		ByType:     make(map[AlertType]int),
		BySeverity: make(map[Severity]int),
	}
	cutoff := s.now().Add(-24 * time.Hour)
	for _, a := range s.alerts {
		stats.Total++
		if !a.Read {
			stats.Unread++
		}
		stats.ByType[a.Type]++
		stats.BySeverity[a.Severity]++
		if a.Timestamp.After(cutoff) {
			stats.Last24h++
		}
	}
	return stats
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing is idempotent.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = listener

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// ExportSnapshot serializes the full collection with a format version tag.
func (s *Store) ExportSnapshot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ImportSnapshot replaces the entire collection from a serialized
// snapshot. The payload must carry an array under the "alerts" key;
// otherwise the import fails, prior state is preserved, and false is
// returned.
func (s *Store) ImportSnapshot(raw string) bool {
	var payload struct {
		Alerts *[]Alert `json:"alerts"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.log.Warn("alert import rejected", logger.Error(err))
		return false
	}
	if payload.Alerts == nil {
		s.log.Warn("alert import rejected: missing alerts field")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imported := make([]*Alert, 0, len(*payload.Alerts))
	for i := range *payload.Alerts {
		a := (*payload.Alerts)[i]
		imported = append(imported, &a)
	}
	s.alerts = imported
	s.persistLocked()
	s.notifyLocked()
	return true
}

// persistLocked truncates to the newest maxAlerts and writes the
// collection to durable storage. Storage failures degrade to in-memory
// operation: logged, never surfaced.
func (s *Store) persistLocked() {
	if len(s.alerts) > s.maxAlerts {
		s.alerts = s.alerts[:s.maxAlerts]
	}
	raw, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		s.log.Error("failed to serialize alerts", logger.Error(err))
		return
	}
	if err := s.kv.Set(persistKey, string(raw)); err != nil {
		s.log.Error("failed to persist alerts, continuing in memory", logger.Error(err))
	}
}

// notifyLocked hands every listener a defensive copy of the collection.
func (s *Store) notifyLocked() {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := make([]Alert, len(s.alerts))
	for i, a := range s.alerts {
		snapshot[i] = *a
	}
	for _, listener := range s.listeners {
		listener(snapshot)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	alerts := make([]Alert, len(s.alerts))
	for i, a := range s.alerts {
		alerts[i] = *a
	}
	return Snapshot{
		Alerts:     alerts,
		ExportedAt: s.now(),
		Version:    SnapshotVersion,
	}
}
