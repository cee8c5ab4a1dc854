package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestClassify_Temperature(t *testing.T) {
	tests := []struct {
		name string
		ctx  *AlertContext
		want Severity
	}{
		{"absent context", nil, SeverityMedium},
		{"absent temperature", &AlertContext{}, SeverityMedium},
		{"extreme deviation", &AlertContext{Temperature: floatPtr(12.5)}, SeverityCritical},
		{"extreme negative deviation", &AlertContext{Temperature: floatPtr(-11)}, SeverityCritical},
		{"large deviation", &AlertContext{Temperature: floatPtr(7)}, SeverityHigh},
		{"moderate deviation", &AlertContext{Temperature: floatPtr(3)}, SeverityMedium},
		{"small deviation", &AlertContext{Temperature: floatPtr(1.5)}, SeverityLow},
		{"boundary at 10", &AlertContext{Temperature: floatPtr(10)}, SeverityHigh},
		{"boundary at 5", &AlertContext{Temperature: floatPtr(5)}, SeverityMedium},
		{"boundary at 2", &AlertContext{Temperature: floatPtr(2)}, SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(TypeTemperature, tt.ctx))
		})
	}
}

func TestClassify_EmptyShelf(t *testing.T) {
	tests := []struct {
		name string
		ctx  *AlertContext
		want Severity
	}{
		{"absent context", nil, SeverityMedium},
		{"absent fill", &AlertContext{}, SeverityMedium},
		{"nearly empty", &AlertContext{FillPercent: floatPtr(3)}, SeverityHigh},
		{"low", &AlertContext{FillPercent: floatPtr(10)}, SeverityMedium},
		{"getting low", &AlertContext{FillPercent: floatPtr(20)}, SeverityLow},
		{"well stocked", &AlertContext{FillPercent: floatPtr(80)}, SeverityLow},
		{"boundary at 5", &AlertContext{FillPercent: floatPtr(5)}, SeverityMedium},
		{"boundary at 15", &AlertContext{FillPercent: floatPtr(15)}, SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(TypeEmptyShelf, tt.ctx))
		})
	}
}

func TestClassify_EquipmentFailureAlwaysCritical(t *testing.T) {
	assert.Equal(t, SeverityCritical, Classify(TypeEquipmentFailure, nil))
	assert.Equal(t, SeverityCritical, Classify(TypeEquipmentFailure, &AlertContext{Confidence: floatPtr(10)}))
}

func TestClassify_UnknownTypeDefaultsToMedium(t *testing.T) {
	assert.Equal(t, SeverityMedium, Classify(AlertType("weather"), nil))
	assert.Equal(t, SeverityMedium, Classify(AlertType(""), &AlertContext{Temperature: floatPtr(50)}))
}

// Classify must be total: any type with any context yields one of the
// four severities.
func TestClassify_Total(t *testing.T) {
	types := []AlertType{TypeEmptyShelf, TypeTemperature, TypeEquipmentFailure, AlertType("bogus")}
	contexts := []*AlertContext{
		nil,
		{},
		{Temperature: floatPtr(-100), FillPercent: floatPtr(-5), Confidence: floatPtr(200)},
		{Temperature: floatPtr(0), FillPercent: floatPtr(0), Confidence: floatPtr(0)},
	}
	valid := map[Severity]bool{
		SeverityLow: true, SeverityMedium: true, SeverityHigh: true, SeverityCritical: true,
	}
	for _, alertType := range types {
		for _, ctx := range contexts {
			assert.True(t, valid[Classify(alertType, ctx)])
		}
	}
}
