// Package alerting implements the store-monitoring alert pipeline:
// severity classification, suppression, durable alert storage, and
// lifecycle orchestration from sensor readings to dispatched alerts.
package alerting

import "time"

// AlertType identifies the category of anomaly an alert describes.
type AlertType string

const (
	TypeEmptyShelf       AlertType = "empty_shelf"
	TypeTemperature      AlertType = "temperature"
	TypeEquipmentFailure AlertType = "equipment_failure"
)

// Severity is the ordinal urgency tier assigned at alert creation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Default suppression windows per alert type. A runtime rule override
// replaces the default for its type only.
const (
	WindowEmptyShelf       = 5 * time.Minute
	WindowTemperature      = 10 * time.Minute
	WindowEquipmentFailure = 2 * time.Minute
	WindowDefault          = 5 * time.Minute
)

// Minimum confidence (0-100) required per alert type. Candidates below
// the floor are suppressed regardless of other context.
const (
	ConfidenceFloorEmptyShelf       = 70.0
	ConfidenceFloorTemperature      = 80.0
	ConfidenceFloorEquipmentFailure = 90.0
	ConfidenceFloorDefault          = 75.0
)

// Threshold policy for raising a candidate at all, evaluated upstream of
// suppression: threshold decides "worth considering", suppression decides
// "worth telling someone right now".
const (
	// FillCandidateThreshold is the fill percentage below which an
	// empty-shelf candidate is raised.
	FillCandidateThreshold = 15.0
	// TempCandidateThreshold is the absolute temperature deviation (°C)
	// above which a temperature candidate is raised.
	TempCandidateThreshold = 5.0
)

// DefaultMaxAlerts is the retention cap: the store keeps only the newest
// entries up to this count on every persist.
const DefaultMaxAlerts = 1000

// suppressionEntryTTL is how long a (store, type) last-emission entry is
// retained before being purged lazily on the next check.
const suppressionEntryTTL = 1 * time.Hour

// Suppression reasons, used for logging and metrics labels.
const (
	ReasonWindow     = "window"
	ReasonContext    = "context"
	ReasonConfidence = "confidence"
)

// SnapshotVersion tags the export/persistence format.
const SnapshotVersion = "1"
