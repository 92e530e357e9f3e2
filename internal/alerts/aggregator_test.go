package alerts

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
)

func record(title string, sev models.Severity, status models.IncidentStatus, age time.Duration) *models.Incident {
	return &models.Incident{
		ID:        uuid.New(),
		Title:     title,
		Severity:  sev,
		Status:    status,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestAggregate_RanksBySeverityThenRecency(t *testing.T) {
	incidents := []*models.Incident{
		record("low", models.SeverityLow, models.StatusActive, time.Minute),
		record("medium", models.SeverityMedium, models.StatusActive, time.Minute),
	}
	threats := []*models.Incident{
		record("critical", models.SeverityCritical, models.StatusActive, time.Minute),
	}

	summary := Aggregate(incidents, threats, 10)

	require.Len(t, summary.Alerts, 3)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, "critical", summary.Alerts[0].Title)
	assert.Equal(t, "medium", summary.Alerts[1].Title)
	assert.Equal(t, "low", summary.Alerts[2].Title)
}

func TestAggregate_EqualSeverityNewestFirst(t *testing.T) {
	older := record("older", models.SeverityHigh, models.StatusActive, time.Hour)
	newer := record("newer", models.SeverityHigh, models.StatusActive, time.Minute)

	summary := Aggregate([]*models.Incident{older, newer}, nil, 10)

	require.Len(t, summary.Alerts, 2)
	assert.Equal(t, "newer", summary.Alerts[0].Title)
	assert.Equal(t, "older", summary.Alerts[1].Title)
}

func TestAggregate_CapWithTrueTotal(t *testing.T) {
	var incidents []*models.Incident
	for i := 0; i < 7; i++ {
		incidents = append(incidents, record("incident", models.SeverityHigh, models.StatusActive, time.Duration(i)*time.Minute))
	}

	summary := Aggregate(incidents, nil, 3)

	// The banner shows at most the cap, but the count is the real number of
	// qualifying records.
	assert.Len(t, summary.Alerts, 3)
	assert.Equal(t, 7, summary.Total)
}

func TestAggregate_NonPositiveLimitUsesDefault(t *testing.T) {
	var incidents []*models.Incident
	for i := 0; i < 5; i++ {
		incidents = append(incidents, record("incident", models.SeverityLow, models.StatusActive, time.Duration(i)*time.Minute))
	}

	summary := Aggregate(incidents, nil, 0)
	assert.Len(t, summary.Alerts, DefaultDisplayCap)
	assert.Equal(t, 5, summary.Total)
}

func TestAggregate_OnlyActiveRecordsQualify(t *testing.T) {
	incidents := []*models.Incident{
		record("active", models.SeverityLow, models.StatusActive, time.Minute),
		record("monitoring", models.SeverityCritical, models.StatusMonitoring, time.Minute),
		record("resolved", models.SeverityCritical, models.StatusResolved, time.Minute),
		nil,
	}

	summary := Aggregate(incidents, nil, 10)

	require.Len(t, summary.Alerts, 1)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, "active", summary.Alerts[0].Title)
}

func TestAggregate_UnknownSeverityRanksLast(t *testing.T) {
	incidents := []*models.Incident{
		record("weird", models.Severity("weird"), models.StatusActive, time.Minute),
		record("medium", models.SeverityMedium, models.StatusActive, time.Minute),
		record("low", models.SeverityLow, models.StatusActive, 2*time.Minute),
	}

	summary := Aggregate(incidents, nil, 10)

	require.Len(t, summary.Alerts, 3)
	assert.Equal(t, "medium", summary.Alerts[0].Title)
	// Unknown ranks at 0, tied with low; the newer record wins the tie.
	assert.Equal(t, "weird", summary.Alerts[1].Title)
	assert.Equal(t, "low", summary.Alerts[2].Title)
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil, nil, 3)
	assert.Empty(t, summary.Alerts)
	assert.Zero(t, summary.Total)
}

func TestAggregate_Deterministic(t *testing.T) {
	incidents := []*models.Incident{
		record("a", models.SeverityHigh, models.StatusActive, time.Minute),
		record("b", models.SeverityHigh, models.StatusActive, 2*time.Minute),
		record("c", models.SeverityCritical, models.StatusActive, 3*time.Minute),
	}

	first := Aggregate(incidents, nil, 10)
	second := Aggregate(incidents, nil, 10)
	assert.Equal(t, first, second)
}

func TestFromSnapshot_SplitsThreats(t *testing.T) {
	threat := record("threat", models.SeverityLow, models.StatusActive, time.Minute)
	threat.ThreatType = "civil_unrest"
	incident := record("incident", models.SeverityLow, models.StatusActive, 2*time.Minute)

	snap := &models.Snapshot{Incidents: []*models.Incident{incident, threat}}
	summary := FromSnapshot(snap, 10)

	require.Len(t, summary.Alerts, 2)
	assert.Equal(t, 2, summary.Total)
}

func TestFromSnapshot_NilSnapshot(t *testing.T) {
	summary := FromSnapshot(nil, 3)
	assert.NotNil(t, summary.Alerts)
	assert.Empty(t, summary.Alerts)
	assert.Zero(t, summary.Total)
}
