package alerting

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shelfwatch/shelfwatch/internal/conf"
	"github.com/shelfwatch/shelfwatch/internal/datastore"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/sensor"
)

func defaultHours() conf.BusinessHoursSettings {
	return conf.BusinessHoursSettings{
		WeekdayStart: 6, WeekdayEnd: 22,
		WeekendStart: 7, WeekendEnd: 21,
	}
}

// recordingSink captures enqueued alerts.
type recordingSink struct {
	alerts []*Alert
}

func (r *recordingSink) Enqueue(a *Alert) { r.alerts = append(r.alerts, a) }

// stubSource returns a fixed batch of readings.
type stubSource struct {
	readings []sensor.Reading
}

func (s *stubSource) Readings(context.Context) []sensor.Reading { return s.readings }

func newTestManager(t *testing.T, source sensor.Source) (*Manager, *Store, *recordingSink) {
	t.Helper()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	store := NewStore(datastore.NewMemoryKV(), 0, log, nil)
	suppressor := NewSuppressor(log, nil)
	sink := &recordingSink{}
	m := NewManager(store, suppressor, sink, source, defaultHours(), time.Second, log)
	// Pin the clock to a weekday noon so business-hours context rules
	// do not depend on when the test runs.
	m.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	return m, store, sink
}

func TestManager_EmptyShelfEndToEnd(t *testing.T) {
	m, store, sink := newTestManager(t, nil)
	conf95 := 95.0

	alert := m.ProcessReading(&sensor.Reading{
		SourceID:   "store-001",
		StoreName:  "Downtown",
		Component:  "B-1",
		Kind:       sensor.KindFillLevel,
		Value:      3,
		Confidence: &conf95,
		Timestamp:  time.Now(),
	})

	require.NotNil(t, alert)
	assert.Equal(t, TypeEmptyShelf, alert.Type)
	assert.Equal(t, SeverityHigh, alert.Severity, "3% fill is high severity")
	assert.Equal(t, []string{"B-1"}, alert.Shelves)

	unread := store.Query(Filter{UnreadOnly: true})
	require.Len(t, unread, 1)
	assert.Equal(t, alert.ID, unread[0].ID)

	require.Len(t, sink.alerts, 1)
	assert.Equal(t, alert.ID, sink.alerts[0].ID)
}

func TestManager_ThresholdPolicy(t *testing.T) {
	tests := []struct {
		name    string
		reading sensor.Reading
		raised  bool
	}{
		{"fill below threshold raises", sensor.Reading{
			SourceID: "s1", Component: "A-1", Kind: sensor.KindFillLevel, Value: 14,
		}, true},
		{"fill at threshold ignored", sensor.Reading{
			SourceID: "s1", Component: "A-1", Kind: sensor.KindFillLevel, Value: 15,
		}, false},
		{"well stocked ignored", sensor.Reading{
			SourceID: "s1", Component: "A-1", Kind: sensor.KindFillLevel, Value: 80,
		}, false},
		{"temperature above threshold raises", sensor.Reading{
			SourceID: "s1", Component: "freezer-1", Kind: sensor.KindTemperature, Value: 6,
		}, true},
		{"negative deviation raises", sensor.Reading{
			SourceID: "s1", Component: "freezer-1", Kind: sensor.KindTemperature, Value: -7,
		}, true},
		{"temperature at threshold ignored", sensor.Reading{
			SourceID: "s1", Component: "freezer-1", Kind: sensor.KindTemperature, Value: 5,
		}, false},
		{"healthy equipment ignored", sensor.Reading{
			SourceID: "s1", Component: "freezer-1", Kind: sensor.KindEquipment,
			Equipment: &sensor.EquipmentStatus{Failed: false},
		}, false},
		{"failed equipment raises", sensor.Reading{
			SourceID: "s1", Component: "freezer-1", Kind: sensor.KindEquipment,
			Equipment: &sensor.EquipmentStatus{Failed: true, Code: "E42", Description: "compressor fault"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t, nil)
			alert := m.ProcessReading(&tt.reading)
			assert.Equal(t, tt.raised, alert != nil)
		})
	}
}

func TestManager_MalformedReadingDropped(t *testing.T) {
	m, _, _ := newTestManager(t, nil)

	assert.Nil(t, m.ProcessReading(&sensor.Reading{Kind: sensor.KindFillLevel, Value: 1}),
		"missing source id")
	assert.Nil(t, m.ProcessReading(&sensor.Reading{
		SourceID: "s1", Component: "u", Kind: sensor.KindEquipment,
	}), "equipment reading without status")
	assert.Nil(t, m.ProcessReading(&sensor.Reading{
		SourceID: "s1", Component: "u", Kind: sensor.Kind("bogus"),
	}), "unknown kind")
}

func TestManager_SuppressionAppliesAcrossReadings(t *testing.T) {
	m, store, _ := newTestManager(t, nil)
	reading := &sensor.Reading{
		SourceID: "s1", Component: "B-1", Kind: sensor.KindFillLevel, Value: 3,
	}

	require.NotNil(t, m.ProcessReading(reading))
	assert.Nil(t, m.ProcessReading(reading), "second identical reading inside the window")
	assert.Len(t, store.Query(Filter{}), 1)
}

func TestManager_EquipmentFailureCritical(t *testing.T) {
	m, _, _ := newTestManager(t, nil)

	alert := m.ProcessReading(&sensor.Reading{
		SourceID: "s1", StoreName: "Downtown", Component: "freezer-1",
		Kind:      sensor.KindEquipment,
		Equipment: &sensor.EquipmentStatus{Failed: true, Code: "E42", Description: "compressor fault"},
	})
	require.NotNil(t, alert)
	assert.Equal(t, SeverityCritical, alert.Severity)
	assert.Contains(t, alert.Message, "E42")
}

func TestManager_HandleAlertOpenMarksRead(t *testing.T) {
	m, store, _ := newTestManager(t, nil)
	alert := m.ProcessReading(&sensor.Reading{
		SourceID: "s1", Component: "B-1", Kind: sensor.KindFillLevel, Value: 3,
	})
	require.NotNil(t, alert)

	m.HandleAlertOpen(alert.ID)
	got, ok := store.Get(alert.ID)
	require.True(t, ok)
	assert.True(t, got.Read)
}

func TestManager_IsBusinessHours(t *testing.T) {
	m, _, _ := newTestManager(t, nil)

	// 2026-03-04 is a Wednesday; 2026-03-07 a Saturday.
	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 3, 4, 5, 59, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 4, 21, 59, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 4, 22, 0, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 7, 6, 30, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 7, 7, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 7, 20, 59, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 7, 21, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.IsBusinessHours(tt.at), "%s", tt.at)
	}
}

func TestManager_PollLoopStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &stubSource{readings: []sensor.Reading{
		{SourceID: "s1", Component: "B-1", Kind: sensor.KindFillLevel, Value: 90},
	}}
	m, _, _ := newTestManager(t, source)

	m.Start()
	time.Sleep(10 * time.Millisecond)
	m.Stop()
}

func TestManager_StopWithoutStart(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	m.Stop() // must not hang or panic
}
