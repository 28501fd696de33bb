package models

// Alert event types.
const (
	EventZoneChange       = "zone_change"
	EventRapidChange      = "rapid_change"
	EventTrendLocked      = "trend_locked"
	EventPullbackFromHigh = "pullback_from_high"
	EventBounceFromLow    = "bounce_from_low"
)

// Breadth zones.
const (
	ZoneNormal = "normal"
	ZoneHot    = "hot"
	ZoneCold   = "cold"
)

// Trend lock directions.
const (
	TrendNone = "none"
	TrendUp   = "up"
	TrendDown = "down"
)

// AlertEvent is pure data handed to the notification layer; the core
// never delivers it itself.
type AlertEvent struct {
	Type    string             `json:"type"`
	Date    string             `json:"date"`
	Time    string             `json:"time"`
	Message string             `json:"message"`
	Context map[string]float64 `json:"context,omitempty"`
}
