package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
)

// CreateIncidentRequest is the payload for creating an incident or threat.
// @Description Incident/threat creation payload
type CreateIncidentRequest struct {
	Title          string   `json:"title" validate:"required,min=2,max=255"`
	Description    string   `json:"description,omitempty"`
	ThreatType     string   `json:"threat_type,omitempty"`
	Severity       string   `json:"severity" validate:"required,oneof=critical high medium low"`
	Status         string   `json:"status,omitempty" validate:"omitempty,oneof=active monitoring contained resolved"`
	Latitude       *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	RadiusKM       float64  `json:"radius_km,omitempty" validate:"omitempty,gte=0"`
	Recommendation string   `json:"recommendation,omitempty"`
	Verified       bool     `json:"verified,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// UpdateIncidentRequest is the payload for updating an incident.
// @Description Incident/threat update payload
type UpdateIncidentRequest struct {
	Title          string   `json:"title" validate:"required,min=2,max=255"`
	Description    string   `json:"description,omitempty"`
	ThreatType     string   `json:"threat_type,omitempty"`
	Severity       string   `json:"severity" validate:"required,oneof=critical high medium low"`
	Status         string   `json:"status" validate:"required,oneof=active monitoring contained resolved"`
	Latitude       *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	RadiusKM       float64  `json:"radius_km,omitempty" validate:"omitempty,gte=0"`
	Recommendation string   `json:"recommendation,omitempty"`
	Verified       bool     `json:"verified,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// IncidentResponse mirrors one incident or threat record.
// @Description Incident/threat record
type IncidentResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	ThreatType     string    `json:"threat_type,omitempty"`
	Severity       string    `json:"severity"`
	Status         string    `json:"status"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	RadiusKM       float64   `json:"radius_km,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Verified       bool      `json:"verified"`
	Source         string    `json:"source,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AssetResponse mirrors one protected asset.
// @Description Protected asset record
type AssetResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	AssetType       string    `json:"asset_type"`
	Status          string    `json:"status"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CurrentLocation string    `json:"current_location,omitempty"`
	SecurityLevel   string    `json:"security_level,omitempty"`
	LastCheckIn     time.Time `json:"last_check_in"`
}

// CheckInRequest is a position/status report for an asset.
// @Description Asset check-in payload
type CheckInRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
	Status    string  `json:"status" validate:"required,oneof=safe in_transit at_risk emergency"`
}

// AlertSummaryResponse is the capped, prioritized banner feed. Total is
// the true qualifying count, independent of the truncation.
// @Description Prioritized alert summary
type AlertSummaryResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Total  int            `json:"total"`
}

// FeedStatusResponse exposes the synchronizer liveness indicator.
// @Description Feed liveness state
type FeedStatusResponse struct {
	Liveness    string     `json:"liveness"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

// PanicPressRequest optionally carries a client-resolved position.
// @Description Panic button press payload
type PanicPressRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// PanicStatusResponse reports the escalation pipeline state and, once an
// attempt completed, its acknowledgment.
// @Description Escalation pipeline status
type PanicStatusResponse struct {
	State          string `json:"state"`
	Acknowledgment string `json:"acknowledgment,omitempty"`
	IncidentID     string `json:"incident_id,omitempty"`
	Operator       string `json:"operator,omitempty"`
}

// StatsResponse carries the dashboard header counters.
// @Description Aggregate dashboard statistics
type StatsResponse struct {
	TotalIncidents  int                     `json:"total_incidents"`
	ActiveIncidents int                     `json:"active_incidents"`
	ActiveThreats   int                     `json:"active_threats"`
	MappedRecords   int                     `json:"mapped_records"`
	UnmappedRecords int                     `json:"unmapped_records"`
	BySeverity      map[models.Severity]int `json:"by_severity"`
	TotalAssets     int                     `json:"total_assets"`
	AssetsAtRisk    int                     `json:"assets_at_risk"`
}
