package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert is a derived banner entry. Alerts are synthesized wholesale from
// the current snapshot on every refresh and never mutated afterwards.
type Alert struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the wholesale read-only projection of the entity store that
// the dashboard works from between refresh ticks.
type Snapshot struct {
	Incidents   []*Incident `json:"incidents"`
	Assets      []*Asset    `json:"assets"`
	RefreshedAt time.Time   `json:"refreshed_at"`
}

// Stats are the aggregate counters shown on the dashboard header. Records
// without coordinates are excluded from the map but counted here.
type Stats struct {
	TotalIncidents  int              `json:"total_incidents"`
	ActiveIncidents int              `json:"active_incidents"`
	ActiveThreats   int              `json:"active_threats"`
	MappedRecords   int              `json:"mapped_records"`
	UnmappedRecords int              `json:"unmapped_records"`
	BySeverity      map[Severity]int `json:"by_severity"`
	TotalAssets     int              `json:"total_assets"`
	AssetsAtRisk    int              `json:"assets_at_risk"`
}
