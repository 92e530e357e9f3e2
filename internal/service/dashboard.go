package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vkarpenko/ops_awareness_system/internal/alerts"
	"github.com/vkarpenko/ops_awareness_system/internal/config"
	"github.com/vkarpenko/ops_awareness_system/internal/feed"
	"github.com/vkarpenko/ops_awareness_system/internal/geomap"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
	"github.com/vkarpenko/ops_awareness_system/internal/webhook"
	"github.com/vkarpenko/ops_awareness_system/pkg/metrics"
)

// Repository defines the contract the dashboard needs from the entity
// store.
type Repository interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, incident *models.Incident) error
	DeactivateIncident(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	ListAssets(ctx context.Context) ([]*models.Asset, error)
	SaveCheckIn(ctx context.Context, check *models.CheckIn) error
	GetSnapshotFromCache(ctx context.Context) (*models.Snapshot, error)
	SetSnapshotCache(ctx context.Context, snap *models.Snapshot) error
}

// DashboardService is the contract the HTTP layer consumes.
type DashboardService interface {
	Start(ctx context.Context)
	Stop()
	Refresh(ctx context.Context)
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	Markers(ctx context.Context) ([]*geomap.Marker, error)
	Alerts(ctx context.Context) (alerts.Summary, error)
	Stats(ctx context.Context) (*models.Stats, error)
	FeedState() (feed.Liveness, time.Time)
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	UpdateIncident(ctx context.Context, incident *models.Incident) error
	DeactivateIncident(ctx context.Context, id uuid.UUID) error
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	ListAssets(ctx context.Context) ([]*models.Asset, error)
	CheckInAsset(ctx context.Context, check *models.CheckIn) error
}

type dashboardService struct {
	repo      Repository
	logger    *logrus.Logger
	cfg       *config.Config
	publisher webhook.Publisher
	sync      *feed.Synchronizer

	mu   sync.RWMutex
	snap *models.Snapshot
}

// NewDashboardService wires the dashboard over the repository and the
// broadcast publisher, owning the feed synchronizer's lifecycle.
func NewDashboardService(repo Repository, logger *logrus.Logger, cfg *config.Config, publisher webhook.Publisher) DashboardService {
	s := &dashboardService{
		repo:      repo,
		logger:    logger,
		cfg:       cfg,
		publisher: publisher,
	}
	s.sync = feed.NewSynchronizer(cfg.PollInterval, cfg.LiveWindow, s.Refresh, logger)
	return s
}

// Start primes the snapshot and launches the polling loop.
func (s *dashboardService) Start(ctx context.Context) {
	s.Refresh(ctx)
	s.sync.Start(ctx)
}

// Stop tears the polling loop down.
func (s *dashboardService) Stop() {
	s.sync.Stop()
}

// Refresh re-fetches the wholesale snapshot. On failure the previous
// snapshot stays in place; the synchronizer does not care either way.
func (s *dashboardService) Refresh(ctx context.Context) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "dashboard",
		"method":  "Refresh",
	})
	metrics.RefreshTicks.Inc()

	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents during refresh")
		metrics.RefreshErrors.Inc()
		return
	}

	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list assets during refresh")
		metrics.RefreshErrors.Inc()
		return
	}

	snap := &models.Snapshot{
		Incidents:   incidents,
		Assets:      assets,
		RefreshedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if err := s.repo.SetSnapshotCache(ctx, snap); err != nil {
		log.WithError(err).Warn("Failed to cache snapshot")
	}

	summary := alerts.FromSnapshot(snap, s.cfg.AlertDisplayCap)
	metrics.ActiveAlerts.Set(float64(summary.Total))
	metrics.SnapshotRecords.WithLabelValues("incidents").Set(float64(len(incidents)))
	metrics.SnapshotRecords.WithLabelValues("assets").Set(float64(len(assets)))

	if err := s.publisher.Publish(ctx, webhook.Event{
		Type:        "feed.refresh",
		Timestamp:   snap.RefreshedAt,
		Incidents:   len(incidents),
		Assets:      len(assets),
		ActiveAlert: summary.Total,
	}); err != nil {
		log.WithError(err).Warn("Failed to publish refresh event")
	}

	log.WithFields(logrus.Fields{
		"incidents": len(incidents),
		"assets":    len(assets),
	}).Debug("Snapshot refreshed")
}

// Snapshot returns the latest snapshot: memory first, then the redis
// cache, then a synchronous load from the store.
func (s *dashboardService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	cached, err := s.repo.GetSnapshotFromCache(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read snapshot cache")
	}
	if cached != nil {
		s.mu.Lock()
		s.snap = cached
		s.mu.Unlock()
		return cached, nil
	}

	s.Refresh(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, fmt.Errorf("service: no snapshot available")
	}
	return s.snap, nil
}

// Markers projects the latest snapshot onto the map. Records without
// coordinates are skipped here but still counted in Stats.
func (s *dashboardService) Markers(ctx context.Context) ([]*geomap.Marker, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return geomap.Build(snap), nil
}

// Alerts aggregates the latest snapshot into the capped banner summary.
func (s *dashboardService) Alerts(ctx context.Context) (alerts.Summary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return alerts.Summary{Alerts: []models.Alert{}}, err
	}
	return alerts.FromSnapshot(snap, s.cfg.AlertDisplayCap), nil
}

// Stats derives the aggregate counters from the latest snapshot. All
// records count here, mapped or not.
func (s *dashboardService) Stats(ctx context.Context) (*models.Stats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		BySeverity: make(map[models.Severity]int),
	}
	for _, in := range snap.Incidents {
		if in == nil {
			continue
		}
		stats.TotalIncidents++
		stats.BySeverity[in.Severity]++
		if in.Status == models.StatusActive {
			if in.IsThreat() {
				stats.ActiveThreats++
			} else {
				stats.ActiveIncidents++
			}
		}
		if in.Location.Valid() {
			stats.MappedRecords++
		} else {
			stats.UnmappedRecords++
		}
	}
	for _, a := range snap.Assets {
		if a == nil {
			continue
		}
		stats.TotalAssets++
		if a.Status == models.AssetAtRisk || a.Status == models.AssetEmergency {
			stats.AssetsAtRisk++
		}
	}
	return stats, nil
}

// FeedState exposes the synchronizer's liveness indicator.
func (s *dashboardService) FeedState() (feed.Liveness, time.Time) {
	return s.sync.State()
}

// CreateIncident writes a new incident. The new record shows up on the
// map and in alerts on the next synchronizer tick.
func (s *dashboardService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "dashboard",
		"method":  "CreateIncident",
		"title":   incident.Title,
	})
	log.Info("Attempting to create a new incident")

	if incident.Status == "" {
		incident.Status = models.StatusActive
	}
	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident fetches one incident by ID.
func (s *dashboardService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "dashboard",
		"method":      "GetIncident",
		"incident_id": id,
	})

	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}
	return incident, nil
}

// UpdateIncident updates an existing incident.
func (s *dashboardService) UpdateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "dashboard",
		"method":      "UpdateIncident",
		"incident_id": incident.ID,
	})

	existing, err := s.repo.GetIncident(ctx, incident.ID)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return fmt.Errorf("service: incident with id %s not found for update: %w", incident.ID, err)
	}

	existing.Title = incident.Title
	existing.Description = incident.Description
	existing.ThreatType = incident.ThreatType
	existing.Severity = incident.Severity
	existing.Status = incident.Status
	existing.Location = incident.Location
	existing.RadiusKM = incident.RadiusKM
	existing.Recommendation = incident.Recommendation
	existing.Verified = incident.Verified

	if err := s.repo.UpdateIncident(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return fmt.Errorf("service: could not update incident: %w", err)
	}
	log.Info("Incident updated successfully")
	return nil
}

// DeactivateIncident resolves an incident.
func (s *dashboardService) DeactivateIncident(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "dashboard",
		"method":      "DeactivateIncident",
		"incident_id": id,
	})

	if _, err := s.repo.GetIncident(ctx, id); err != nil {
		log.WithError(err).Warn("Attempted to deactivate a non-existent incident")
		return fmt.Errorf("service: incident with id %s not found for deactivate: %w", id, err)
	}

	if err := s.repo.DeactivateIncident(ctx, id); err != nil {
		log.WithError(err).Error("Failed to deactivate incident in repository")
		return fmt.Errorf("service: could not deactivate incident: %w", err)
	}

	log.Info("Incident deactivated successfully")
	return nil
}

// ListIncidents returns all incident and threat records.
func (s *dashboardService) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	incidents, err := s.repo.ListIncidents(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return incidents, nil
}

// ListAssets returns all protected assets.
func (s *dashboardService) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list assets from repository")
		return nil, fmt.Errorf("service: could not list assets: %w", err)
	}
	return assets, nil
}

// CheckInAsset stores a position/status report from an asset. The board
// reflects it on the next refresh tick.
func (s *dashboardService) CheckInAsset(ctx context.Context, check *models.CheckIn) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "dashboard",
		"method":   "CheckInAsset",
		"asset_id": check.AssetID,
	})

	if err := s.repo.SaveCheckIn(ctx, check); err != nil {
		log.WithError(err).Error("Failed to save asset check-in")
		return fmt.Errorf("service: could not save check-in: %w", err)
	}

	log.Info("Asset check-in recorded")
	return nil
}
