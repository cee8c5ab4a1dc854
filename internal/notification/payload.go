// Package notification dispatches alerts to an external delivery
// collaborator at a bounded rate.
package notification

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/alerting"
)

// Action is a user-visible action button on a delivered notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the shape handed to the delivery collaborator. Tag is used
// for de-duplication/replacement at the delivery layer.
type Payload struct {
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Icon               string         `json:"icon,omitempty"`
	Badge              string         `json:"badge,omitempty"`
	Image              string         `json:"image,omitempty"`
	Data               map[string]any `json:"data"`
	Tag                string         `json:"tag"`
	RequireInteraction bool           `json:"requireInteraction"`
	Actions            []Action       `json:"actions"`
}

// Provider is the delivery collaborator: accepts a payload, reports
// success or failure. Ready reports whether delivery is currently
// permitted; the dispatcher drops entries when it is not.
type Provider interface {
	Ready() bool
	Send(ctx context.Context, p *Payload) error
}

// BuildPayload converts an alert to its delivery payload. The tag format
// alert-{type}-{storeId} lets the delivery layer replace stale
// notifications for the same store and type. Only critical alerts demand
// interaction.
func BuildPayload(a *alerting.Alert) *Payload {
	image := a.AnnotatedImageURL
	if image == "" {
		image = a.ImageURL
	}
	return &Payload{
		Title: a.Title,
		Body:  a.Message,
		Image: image,
		Data: map[string]any{
			"alertId":  a.ID,
			"storeId":  a.StoreID,
			"type":     string(a.Type),
			"severity": string(a.Severity),
		},
		Tag:                fmt.Sprintf("alert-%s-%s", a.Type, a.StoreID),
		RequireInteraction: a.Severity == alerting.SeverityCritical,
		Actions: []Action{
			{Action: "open", Title: "View"},
			{Action: "dismiss", Title: "Dismiss"},
		},
	}
}
