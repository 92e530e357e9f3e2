package alerts

import (
	"sort"

	"github.com/vkarpenko/ops_awareness_system/internal/models"
)

// DefaultDisplayCap is the banner cap applied when a non-positive limit is
// passed to Aggregate.
const DefaultDisplayCap = 3

// Summary is the prioritized banner feed. Alerts holds at most the display
// cap; Total is the true count of qualifying records, so the banner can
// show "Active Threat Alerts · N" without the two numbers disagreeing.
type Summary struct {
	Alerts []models.Alert `json:"alerts"`
	Total  int            `json:"total"`
}

// Aggregate flattens the active-state incident and threat records into one
// ranked, capped summary. It is pure and deterministic: rank key is
// (severity rank desc, created_at desc), with unrecognized severities
// ranking at 0 rather than disappearing or crashing.
func Aggregate(incidents, threats []*models.Incident, limit int) Summary {
	if limit <= 0 {
		limit = DefaultDisplayCap
	}

	qualifying := make([]*models.Incident, 0, len(incidents)+len(threats))
	for _, in := range incidents {
		if in != nil && in.Status == models.StatusActive {
			qualifying = append(qualifying, in)
		}
	}
	for _, th := range threats {
		if th != nil && th.Status == models.StatusActive {
			qualifying = append(qualifying, th)
		}
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		ri, rj := qualifying[i].Severity.Rank(), qualifying[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return qualifying[i].CreatedAt.After(qualifying[j].CreatedAt)
	})

	total := len(qualifying)
	if len(qualifying) > limit {
		qualifying = qualifying[:limit]
	}

	out := make([]models.Alert, 0, len(qualifying))
	for _, rec := range qualifying {
		out = append(out, models.Alert{
			ID:        rec.ID,
			Title:     rec.Title,
			Message:   rec.Description,
			Severity:  rec.Severity,
			Source:    rec.Source,
			CreatedAt: rec.CreatedAt,
		})
	}

	return Summary{Alerts: out, Total: total}
}

// FromSnapshot splits a snapshot into incidents and threats and aggregates
// them. Threat records are those carrying a threat type.
func FromSnapshot(snap *models.Snapshot, limit int) Summary {
	if snap == nil {
		return Summary{Alerts: []models.Alert{}}
	}

	incidents := make([]*models.Incident, 0, len(snap.Incidents))
	threats := make([]*models.Incident, 0, len(snap.Incidents))
	for _, in := range snap.Incidents {
		if in == nil {
			continue
		}
		if in.IsThreat() {
			threats = append(threats, in)
		} else {
			incidents = append(incidents, in)
		}
	}
	return Aggregate(incidents, threats, limit)
}
