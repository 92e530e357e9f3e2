package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
	"github.com/vkarpenko/ops_awareness_system/internal/service"
)

const snapshotCacheKey = "dashboard:snapshot"

type DashboardRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	snapshotTTL time.Duration
}

func NewDashboardRepository(db *pgxpool.Pool, redisClient *redis.Client, snapshotTTL time.Duration) service.Repository {
	return &DashboardRepository{
		db:          db,
		redisClient: redisClient,
		snapshotTTL: snapshotTTL,
	}
}

// coordColumns splits an optional coordinate into nullable lat/lon values.
func coordColumns(c *models.Coordinate) (lat, lon *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Latitude, &c.Longitude
}

// coordFromColumns rebuilds the optional coordinate. A record with only
// one component is treated as unmapped.
func coordFromColumns(lat, lon *float64) *models.Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinate{Latitude: *lat, Longitude: *lon}
}

// CreateIncident inserts a new incident or threat record.
func (r *DashboardRepository) CreateIncident(ctx context.Context, incident *models.Incident) error {
	lat, lon := coordColumns(incident.Location)
	query := `
		INSERT INTO incidents (id, title, description, threat_type, severity, status, latitude, longitude, radius_km, recommendation, verified, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at;
	`
	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, query,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.ThreatType,
		incident.Severity,
		incident.Status,
		lat,
		lon,
		incident.RadiusKM,
		incident.Recommendation,
		incident.Verified,
		incident.Source,
	).Scan(&incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

const incidentColumns = `
	id, title, description, threat_type, severity, status,
	latitude, longitude, radius_km, recommendation, verified, source,
	created_at, updated_at`

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	var lat, lon *float64
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.ThreatType,
		&incident.Severity,
		&incident.Status,
		&lat,
		&lon,
		&incident.RadiusKM,
		&incident.Recommendation,
		&incident.Verified,
		&incident.Source,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	incident.Location = coordFromColumns(lat, lon)
	return incident, nil
}

// GetIncident returns an incident by its UUID.
func (r *DashboardRepository) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s not found", id)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// UpdateIncident rewrites a record in place.
func (r *DashboardRepository) UpdateIncident(ctx context.Context, incident *models.Incident) error {
	lat, lon := coordColumns(incident.Location)
	query := `
		UPDATE incidents SET
			title = $1,
			description = $2,
			threat_type = $3,
			severity = $4,
			status = $5,
			latitude = $6,
			longitude = $7,
			radius_km = $8,
			recommendation = $9,
			verified = $10,
			updated_at = NOW()
		WHERE id = $11;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Title,
		incident.Description,
		incident.ThreatType,
		incident.Severity,
		incident.Status,
		lat,
		lon,
		incident.RadiusKM,
		incident.Recommendation,
		incident.Verified,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for update", incident.ID)
	}
	return nil
}

// DeactivateIncident marks an incident resolved.
func (r *DashboardRepository) DeactivateIncident(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE incidents SET
			status = 'resolved',
			updated_at = NOW()
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s not found for deactivate", id)
	}
	return nil
}

// ListIncidents returns every incident and threat record, newest first.
func (r *DashboardRepository) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	query := `SELECT` + incidentColumns + ` FROM incidents ORDER BY created_at DESC;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incident rows: %w", err)
	}
	return incidents, nil
}

// ListAssets returns every protected asset.
func (r *DashboardRepository) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	query := `
		SELECT
			id, name, asset_type, status, latitude, longitude,
			current_location, security_level, last_check_in, created_at, updated_at
		FROM assets
		ORDER BY name;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		asset := &models.Asset{}
		var lat, lon *float64
		err := rows.Scan(
			&asset.ID,
			&asset.Name,
			&asset.AssetType,
			&asset.Status,
			&lat,
			&lon,
			&asset.CurrentLocation,
			&asset.SecurityLevel,
			&asset.LastCheckIn,
			&asset.CreatedAt,
			&asset.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		asset.Location = coordFromColumns(lat, lon)
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}

// SaveCheckIn records a check-in and moves the asset to the reported
// position and status in the same transaction.
func (r *DashboardRepository) SaveCheckIn(ctx context.Context, check *models.CheckIn) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin check-in transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO check_ins (asset_id, latitude, longitude, status)
		VALUES ($1, $2, $3, $4) RETURNING id, checked_at;
	`
	err = tx.QueryRow(ctx, insert,
		check.AssetID,
		check.Latitude,
		check.Longitude,
		check.Status,
	).Scan(&check.ID, &check.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to save check-in: %w", err)
	}

	update := `
		UPDATE assets SET
			latitude = $1,
			longitude = $2,
			status = $3,
			last_check_in = $4,
			updated_at = NOW()
		WHERE id = $5;
	`
	cmdTag, err := tx.Exec(ctx, update,
		check.Latitude,
		check.Longitude,
		check.Status,
		check.CheckedAt,
		check.AssetID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset from check-in: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("asset with id %s not found for check-in", check.AssetID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit check-in transaction: %w", err)
	}
	return nil
}

// GetSnapshotFromCache reads the cached wholesale snapshot, returning
// (nil, nil) on a cache miss.
func (r *DashboardRepository) GetSnapshotFromCache(ctx context.Context) (*models.Snapshot, error) {
	val, err := r.redisClient.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot from cache: %w", err)
	}

	snap := &models.Snapshot{}
	if err := json.Unmarshal(val, snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot from cache: %w", err)
	}
	return snap, nil
}

// SetSnapshotCache stores the latest snapshot with the configured TTL.
func (r *DashboardRepository) SetSnapshotCache(ctx context.Context, snap *models.Snapshot) error {
	val, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, snapshotCacheKey, val, r.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot in cache: %w", err)
	}
	return nil
}
