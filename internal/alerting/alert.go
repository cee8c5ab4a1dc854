package alerting

import "time"

// Alert is a persisted record describing a detected anomaly at a store.
// Immutable once created except for the Read flag.
type Alert struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	StoreName string    `json:"storeName,omitempty"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	// Message may contain embedded newlines; they are display lines, not
	// semantic fields.
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`

	// Optional context captured at creation time.
	Location          string   `json:"location,omitempty"`
	Shelves           []string `json:"shelves,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	Threshold         *float64 `json:"threshold,omitempty"`
	Confidence        *float64 `json:"confidence,omitempty"`
	ImageURL          string   `json:"imageUrl,omitempty"`
	AnnotatedImageURL string   `json:"annotatedImageUrl,omitempty"`
}

// valid reports whether a persisted record carries the required fields.
// Records failing this check are discarded on load.
func (a *Alert) valid() bool {
	return a.ID != "" && a.Type != "" && a.Title != "" && a.Message != ""
}

// AlertContext carries the numeric and situational context used by the
// classifier and the suppression engine. Pointer fields distinguish
// "absent" from zero.
type AlertContext struct {
	Temperature     *float64
	FillPercent     *float64
	Confidence      *float64
	PersonDetected  bool
	IsBusinessHours bool
}

// Draft is the caller-supplied portion of an alert. The store synthesizes
// ID, timestamp, read flag, and severity on Add.
type Draft struct {
	StoreID           string
	StoreName         string
	Type              AlertType
	Title             string
	Message           string
	Context           *AlertContext
	Location          string
	Shelves           []string
	ImageURL          string
	AnnotatedImageURL string
}

// Filter selects alerts in Query. Zero-valued fields are ignored; set
// fields combine conjunctively.
type Filter struct {
	StoreID    string
	Type       AlertType
	Severity   Severity
	UnreadOnly bool
	// Limit truncates from the head (most recent). Zero means no limit.
	Limit int
}

// matches reports whether the alert satisfies every set filter field.
func (f *Filter) matches(a *Alert) bool {
	if f.StoreID != "" && a.StoreID != f.StoreID {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.UnreadOnly && a.Read {
		return false
	}
	return true
}

// Statistics summarizes the current alert collection.
type Statistics struct {
	Total      int               `json:"total"`
	Unread     int               `json:"unread"`
	ByType     map[AlertType]int `json:"byType"`
	BySeverity map[Severity]int  `json:"bySeverity"`
	Last24h    int               `json:"last24h"`
}

// Snapshot is the export/import format for the full alert collection.
type Snapshot struct {
	Alerts     []Alert   `json:"alerts"`
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
}
