package sensor

import (
	"context"
	"math/rand"
	"time"
)

// SimulatedSource produces pseudo-random readings for a fixed set of
// stores, for demos and the --simulate CLI mode. Deterministic when
// seeded.
type SimulatedSource struct {
	rng    *rand.Rand
	stores []simStore
	now    func() time.Time
}

type simStore struct {
	id, name string
	shelves  []string
	units    []string
}

// NewSimulatedSource creates a simulated source seeded for
// reproducibility.
func NewSimulatedSource(seed int64) *SimulatedSource {
	return &SimulatedSource{
		rng: rand.New(rand.NewSource(seed)),
		stores: []simStore{
			{id: "store-001", name: "Downtown", shelves: []string{"A-1", "B-1", "B-2"}, units: []string{"freezer-1"}},
			{id: "store-002", name: "Riverside", shelves: []string{"A-1", "C-3"}, units: []string{"freezer-1", "cooler-2"}},
		},
		now: time.Now,
	}
}

// Readings returns one fill-level reading per shelf and one temperature
// reading per unit, with occasional equipment failures mixed in.
func (s *SimulatedSource) Readings(ctx context.Context) []Reading {
	if ctx.Err() != nil {
		return nil
	}
	now := s.now()
	var out []Reading
	for _, st := range s.stores {
		for _, shelf := range st.shelves {
			conf := 60 + s.rng.Float64()*40
			out = append(out, Reading{
				SourceID:       st.id,
				StoreName:      st.name,
				Component:      shelf,
				Kind:           KindFillLevel,
				Value:          s.rng.Float64() * 100,
				Confidence:     &conf,
				PersonDetected: s.rng.Float64() < 0.1,
				Timestamp:      now,
			})
		}
		for _, unit := range st.units {
			out = append(out, Reading{
				SourceID:  st.id,
				StoreName: st.name,
				Component: unit,
				Kind:      KindTemperature,
				Value:     s.rng.NormFloat64() * 4,
				Timestamp: now,
			})
			if s.rng.Float64() < 0.02 {
				out = append(out, Reading{
					SourceID:  st.id,
					StoreName: st.name,
					Component: unit,
					Kind:      KindEquipment,
					Equipment: &EquipmentStatus{Failed: true, Code: "E42", Description: "compressor fault"},
					Timestamp: now,
				})
			}
		}
	}
	return out
}
