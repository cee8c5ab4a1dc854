// Package sensor defines the sensor-source collaborator: asynchronous
// shelf-camera and temperature readings per store component.
package sensor

import (
	"context"
	"time"
)

// Kind discriminates the tagged union of known reading shapes.
type Kind string

const (
	// KindFillLevel is a scalar shelf fill percentage (0-100) from a
	// shelf camera.
	KindFillLevel Kind = "fill_level"
	// KindTemperature is a scalar temperature deviation (°C) from the
	// unit's target.
	KindTemperature Kind = "temperature"
	// KindEquipment is a structured equipment status report.
	KindEquipment Kind = "equipment"
)

// EquipmentStatus is the structured payload of a KindEquipment reading.
type EquipmentStatus struct {
	Failed      bool
	Code        string
	Description string
}

// Reading is a single observation from one store component. Value is
// meaningful for scalar kinds; Equipment for KindEquipment. The shape is
// validated at the source boundary, so consumers can switch on Kind
// without re-checking.
type Reading struct {
	SourceID  string // store identifier
	StoreName string
	Component string // e.g. shelf "B-1", "freezer-2"
	Kind      Kind
	Value     float64
	Equipment *EquipmentStatus

	// Optional camera context.
	Confidence     *float64 // 0-100
	PersonDetected bool
	ImageURL       string

	Timestamp time.Time
}

// Valid reports whether the reading has a well-formed shape for its kind.
func (r *Reading) Valid() bool {
	if r.SourceID == "" || r.Component == "" {
		return false
	}
	switch r.Kind {
	case KindFillLevel, KindTemperature:
		return true
	case KindEquipment:
		return r.Equipment != nil
	default:
		return false
	}
}

// Source yields readings for all monitored components. By contract,
// implementations return an empty slice on failure rather than
// propagating an error; a read failure must never stop monitoring.
type Source interface {
	Readings(ctx context.Context) []Reading
}
