package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetType classifies a protected asset. Type drives the marker icon.
type AssetType string

const (
	AssetExecutive  AssetType = "executive"
	AssetVIP        AssetType = "vip"
	AssetFacility   AssetType = "facility"
	AssetVehicle    AssetType = "vehicle"
	AssetTeamMember AssetType = "team_member"
	AssetOther      AssetType = "other"
)

// AssetStatus is the protection state of an asset. Status drives the
// marker color, independent of the asset type.
type AssetStatus string

const (
	AssetSafe      AssetStatus = "safe"
	AssetInTransit AssetStatus = "in_transit"
	AssetAtRisk    AssetStatus = "at_risk"
	AssetEmergency AssetStatus = "emergency"
)

// Asset is a protected person, vehicle or facility tracked on the map.
type Asset struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	AssetType       AssetType   `json:"asset_type"`
	Status          AssetStatus `json:"status"`
	Location        *Coordinate `json:"location,omitempty"`
	CurrentLocation string      `json:"current_location,omitempty"`
	SecurityLevel   string      `json:"security_level,omitempty"`
	LastCheckIn     time.Time   `json:"last_check_in"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// CheckIn is a position/status report from an asset.
type CheckIn struct {
	ID        int64       `json:"id"`
	AssetID   uuid.UUID   `json:"asset_id"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Status    AssetStatus `json:"status"`
	CheckedAt time.Time   `json:"checked_at"`
}
