package sensor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSource_ProducesValidReadings(t *testing.T) {
	s := NewSimulatedSource(42)
	readings := s.Readings(context.Background())
	require.NotEmpty(t, readings)
	for i := range readings {
		assert.True(t, readings[i].Valid(), "reading %d: %+v", i, readings[i])
	}
}

func TestSimulatedSource_DeterministicForSeed(t *testing.T) {
	a := NewSimulatedSource(7).Readings(context.Background())
	b := NewSimulatedSource(7).Readings(context.Background())
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Value, b[i].Value, "reading %d", i)
	}
}

func TestSimulatedSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, NewSimulatedSource(1).Readings(ctx))
}

func TestReading_Valid(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		want    bool
	}{
		{"fill level", Reading{SourceID: "s1", Component: "A-1", Kind: KindFillLevel, Value: 50}, true},
		{"missing source", Reading{Component: "A-1", Kind: KindFillLevel}, false},
		{"missing component", Reading{SourceID: "s1", Kind: KindFillLevel}, false},
		{"unknown kind", Reading{SourceID: "s1", Component: "A-1", Kind: Kind("bogus")}, false},
		{"equipment without status", Reading{SourceID: "s1", Component: "u1", Kind: KindEquipment}, false},
		{"equipment with status", Reading{
			SourceID: "s1", Component: "u1", Kind: KindEquipment,
			Equipment: &EquipmentStatus{Failed: true},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reading.Valid())
		})
	}
}
