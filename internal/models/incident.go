package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Severity is the ordinal importance tag of an incident or threat.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns the fixed ordering used for alert prioritization:
// critical=3, high=2, medium=1, low=0. Unrecognized severities rank at 0
// so malformed upstream data sorts last instead of breaking aggregation.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// IncidentStatus is the lifecycle state of an incident or threat.
type IncidentStatus string

const (
	StatusActive     IncidentStatus = "active"
	StatusMonitoring IncidentStatus = "monitoring"
	StatusContained  IncidentStatus = "contained"
	StatusResolved   IncidentStatus = "resolved"
)

// Coordinate is a WGS84 point. A nil *Coordinate on a record means the
// record has no map placement; it still participates in aggregate counts.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite numbers. Upstream data
// is not guaranteed to be validated, so NaN/Inf must not reach the map.
func (c *Coordinate) Valid() bool {
	if c == nil {
		return false
	}
	return !math.IsNaN(c.Latitude) && !math.IsInf(c.Latitude, 0) &&
		!math.IsNaN(c.Longitude) && !math.IsInf(c.Longitude, 0)
}

// Incident is an incident or threat record owned by the entity store.
// Threat records carry a non-empty ThreatType.
type Incident struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ThreatType     string         `json:"threat_type,omitempty"`
	Severity       Severity       `json:"severity"`
	Status         IncidentStatus `json:"status"`
	Location       *Coordinate    `json:"location,omitempty"`
	RadiusKM       float64        `json:"radius_km,omitempty"`
	Recommendation string         `json:"recommendation,omitempty"`
	Verified       bool           `json:"verified"`
	Source         string         `json:"source"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsThreat reports whether the record is a threat rather than a plain
// incident.
func (i *Incident) IsThreat() bool {
	return i.ThreatType != ""
}
