package alerting

import "math"

// Classify maps an alert type and its numeric context to a severity
// tier. Pure and total: it always returns one of the four severities and
// never fails. Severity is derived once at alert creation and never
// recomputed.
func Classify(alertType AlertType, ctx *AlertContext) Severity {
	switch alertType {
	case TypeTemperature:
		return classifyTemperature(ctx)
	case TypeEmptyShelf:
		return classifyEmptyShelf(ctx)
	case TypeEquipmentFailure:
		return SeverityCritical
	default:
		// Unknown types map to the middle tier.
		return SeverityMedium
	}
}

// classifyTemperature grades by absolute deviation from the target
// temperature. Absent context defaults to medium.
func classifyTemperature(ctx *AlertContext) Severity {
	if ctx == nil || ctx.Temperature == nil {
		return SeverityMedium
	}
	deviation := math.Abs(*ctx.Temperature)
	switch {
	case deviation > 10:
		return SeverityCritical
	case deviation > 5:
		return SeverityHigh
	case deviation > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// classifyEmptyShelf grades by remaining fill percentage. Absent context
// defaults to medium.
func classifyEmptyShelf(ctx *AlertContext) Severity {
	if ctx == nil || ctx.FillPercent == nil {
		return SeverityMedium
	}
	switch {
	case *ctx.FillPercent < 5:
		return SeverityHigh
	case *ctx.FillPercent < 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
