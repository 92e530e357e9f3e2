package geomap

import (
	"time"

	"github.com/vkarpenko/ops_awareness_system/internal/models"
	"github.com/vkarpenko/ops_awareness_system/internal/taxonomy"
)

// MarkerKind distinguishes what a marker represents.
type MarkerKind string

const (
	KindIncident MarkerKind = "incident"
	KindThreat   MarkerKind = "threat"
	KindAsset    MarkerKind = "asset"
)

// CircleOverlay describes the influence-area circle drawn under a marker.
type CircleOverlay struct {
	RadiusKM float64 `json:"radius_km"`
	Color    string  `json:"color"`
	Opacity  float64 `json:"opacity"`
}

// Popup is the field projection shown when a marker is selected. No
// formatting happens here; the view layer owns presentation.
type Popup struct {
	Title          string    `json:"title"`
	Type           string    `json:"type,omitempty"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Source         string    `json:"source,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Marker is a renderable descriptor for one map-plotted record,
// independent of the rendering technology.
type Marker struct {
	ID       string            `json:"id"`
	Kind     MarkerKind        `json:"kind"`
	Position models.Coordinate `json:"position"`
	Style    taxonomy.Style    `json:"style"`
	Overlay  *CircleOverlay    `json:"overlay,omitempty"`
	Popup    Popup             `json:"popup"`
}

const overlayOpacity = 0.15

// FromIncident builds a marker for an incident or threat record. It
// returns nil when the record has no finite coordinate; such records are
// skipped on the map but still belong in every aggregate count.
func FromIncident(in *models.Incident) *Marker {
	if in == nil || !in.Location.Valid() {
		return nil
	}

	kind := KindIncident
	if in.IsThreat() {
		kind = KindThreat
	}

	style := taxonomy.ForSeverity(in.Severity)
	m := &Marker{
		ID:       in.ID.String(),
		Kind:     kind,
		Position: *in.Location,
		Style:    style,
		Popup: Popup{
			Title:          in.Title,
			Type:           in.ThreatType,
			Description:    in.Description,
			Recommendation: in.Recommendation,
			Source:         in.Source,
			Timestamp:      in.CreatedAt,
		},
	}

	if in.RadiusKM > 0 {
		m.Overlay = &CircleOverlay{
			RadiusKM: in.RadiusKM,
			Color:    style.Color,
			Opacity:  overlayOpacity,
		}
	}
	return m
}

// FromAsset builds a marker for an asset record, or nil when the asset has
// no finite coordinate. Status drives the color, asset type the icon.
func FromAsset(a *models.Asset) *Marker {
	if a == nil || !a.Location.Valid() {
		return nil
	}

	style := taxonomy.ForAssetStatus(a.Status)
	style.Icon = taxonomy.ForAssetType(a.AssetType)

	return &Marker{
		ID:       a.ID.String(),
		Kind:     KindAsset,
		Position: *a.Location,
		Style:    style,
		Popup: Popup{
			Title:     a.Name,
			Type:      string(a.AssetType),
			Location:  a.CurrentLocation,
			Timestamp: a.LastCheckIn,
		},
	}
}

// Build assembles the marker set for a snapshot. Records without
// coordinates are dropped here and only here; counters are always derived
// from the snapshot itself, never from the marker list.
func Build(snap *models.Snapshot) []*Marker {
	if snap == nil {
		return nil
	}

	markers := make([]*Marker, 0, len(snap.Incidents)+len(snap.Assets))
	for _, in := range snap.Incidents {
		if m := FromIncident(in); m != nil {
			markers = append(markers, m)
		}
	}
	for _, a := range snap.Assets {
		if m := FromAsset(a); m != nil {
			markers = append(markers, m)
		}
	}
	return markers
}
