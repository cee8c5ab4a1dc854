package alerting_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/alerting"
	"github.com/shelfwatch/shelfwatch/internal/conf"
	"github.com/shelfwatch/shelfwatch/internal/datastore"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/notification"
	"github.com/shelfwatch/shelfwatch/internal/observability/metrics"
	"github.com/shelfwatch/shelfwatch/internal/sensor"
)

// capturingProvider records every payload handed to it.
type capturingProvider struct {
	payloads []*notification.Payload
}

func (c *capturingProvider) Ready() bool { return true }

func (c *capturingProvider) Send(_ context.Context, p *notification.Payload) error {
	c.payloads = append(c.payloads, p)
	return nil
}

// TestPipelineEndToEnd drives a reading through the full chain: manager,
// suppression, store, dispatcher, delivery.
func TestPipelineEndToEnd(t *testing.T) {
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	m := metrics.New()

	store := alerting.NewStore(datastore.NewMemoryKV(), 0, log, m)
	suppressor := alerting.NewSuppressor(log, m)
	provider := &capturingProvider{}
	dispatcher := notification.NewDispatcher(provider, nil, time.Second, log, m)

	hours := conf.BusinessHoursSettings{WeekdayStart: 6, WeekdayEnd: 22, WeekendStart: 7, WeekendEnd: 21}
	manager := alerting.NewManager(store, suppressor, dispatcher, nil, hours, time.Second, log)

	conf95 := 95.0
	reading := &sensor.Reading{
		SourceID:   "store-001",
		StoreName:  "Downtown",
		Component:  "B-1",
		Kind:       sensor.KindFillLevel,
		Value:      3,
		Confidence: &conf95,
		Timestamp:  time.Now(),
	}

	alert := manager.ProcessReading(reading)
	require.NotNil(t, alert)
	assert.Equal(t, alerting.SeverityHigh, alert.Severity)

	// Stored and unread.
	assert.Equal(t, 1, store.UnreadCount(""))

	// Queued, then delivered on drain.
	require.Equal(t, 1, dispatcher.QueueLen())
	dispatcher.DrainOne()
	require.Len(t, provider.payloads, 1)
	assert.Equal(t, "alert-empty_shelf-store-001", provider.payloads[0].Tag)
	assert.Equal(t, alert.ID, provider.payloads[0].Data["alertId"])

	// The identical reading inside the suppression window produces
	// nothing new anywhere in the chain.
	assert.Nil(t, manager.ProcessReading(reading))
	assert.Equal(t, 0, dispatcher.QueueLen())
	assert.Len(t, store.Query(alerting.Filter{}), 1)
}

// TestPipelineSQLitePersistence restarts the store on the same database
// and expects the alert collection to survive.
func TestPipelineSQLitePersistence(t *testing.T) {
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	kv, err := datastore.OpenSQLite(":memory:")
	require.NoError(t, err)

	store := alerting.NewStore(kv, 0, log, nil)
	fill := 3.0
	added := store.Add(&alerting.Draft{
		StoreID: "store-001",
		Type:    alerting.TypeEmptyShelf,
		Title:   "Low stock",
		Message: "B-1 nearly empty",
		Context: &alerting.AlertContext{FillPercent: &fill},
	})
	require.NotNil(t, added)

	reloaded := alerting.NewStore(kv, 0, log, nil)
	got, ok := reloaded.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, added.Title, got.Title)
}
