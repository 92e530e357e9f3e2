package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vkarpenko/ops_awareness_system/internal/config"
	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
	"github.com/vkarpenko/ops_awareness_system/internal/service"
)

type Handler struct {
	dashboard service.DashboardService
	pipeline  *escalation.Pipeline
	logger    *logrus.Logger
	validate  *validator.Validate
	cfg       *config.Config
}

func NewHandler(dashboard service.DashboardService, pipeline *escalation.Pipeline, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		dashboard: dashboard,
		pipeline:  pipeline,
		logger:    logger,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// @Summary Create a new incident or threat
// @Description Create a new incident/threat record. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if (input.Latitude == nil) != (input.Longitude == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be provided together"})
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.dashboard.CreateIncident(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to create incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary List incidents and threats
// @Description Get every incident/threat record, newest first. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	incidents, err := h.dashboard.ListIncidents(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident/threat by its ID. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.dashboard.GetIncident(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from service")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an existing incident
// @Description Update an existing incident/threat by ID. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid incident ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToIncidentModel(input)
	model.ID = id

	if err := h.dashboard.UpdateIncident(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to update incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update incident"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Deactivate an incident
// @Description Mark an incident/threat resolved. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	if err := h.dashboard.DeactivateIncident(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("Failed to deactivate incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate incident"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary List protected assets
// @Description Get every protected asset. Requires API key.
// @Tags Assets
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} AssetResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /assets [get]
func (h *Handler) listAssets(c *gin.Context) {
	log := h.logger.WithField("method", "listAssets")

	assets, err := h.dashboard.ListAssets(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list assets from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToAssetResponses(assets))
}

// @Summary Record an asset check-in
// @Description Store a position/status report for an asset. Requires API key.
// @Tags Assets
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Asset ID"
// @Param checkin body CheckInRequest true "Check-in request"
// @Success 201 "Created"
// @Failure 400 {object} map[string]string "Invalid asset ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /assets/{id}/checkin [post]
func (h *Handler) checkInAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset ID"})
		return
	}
	log := h.logger.WithField("method", "checkInAsset").WithField("id", id)

	var input CheckInRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	check := &models.CheckIn{
		AssetID:   id,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Status:    models.AssetStatus(input.Status),
	}
	if err := h.dashboard.CheckInAsset(c.Request.Context(), check); err != nil {
		log.WithError(err).Error("Failed to record check-in in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusCreated)
}

// @Summary Get map markers
// @Description Get renderable marker descriptors for every mapped record. Records without coordinates are omitted here but still counted in /stats. Requires API key.
// @Tags Map
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} geomap.Marker
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /map/markers [get]
func (h *Handler) getMarkers(c *gin.Context) {
	log := h.logger.WithField("method", "getMarkers")

	markers, err := h.dashboard.Markers(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to build markers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, markers)
}

// @Summary Get alert summary
// @Description Get the capped, prioritized alert banner feed with the true total. Requires API key.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} AlertSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts [get]
func (h *Handler) getAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "getAlerts")

	summary, err := h.dashboard.Alerts(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to aggregate alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, AlertSummaryResponse{Alerts: summary.Alerts, Total: summary.Total})
}

// @Summary Get dashboard statistics
// @Description Get aggregate counters. Unmapped records count here even though they carry no marker. Requires API key.
// @Tags Dashboard
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get stats from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalIncidents:  stats.TotalIncidents,
		ActiveIncidents: stats.ActiveIncidents,
		ActiveThreats:   stats.ActiveThreats,
		MappedRecords:   stats.MappedRecords,
		UnmappedRecords: stats.UnmappedRecords,
		BySeverity:      stats.BySeverity,
		TotalAssets:     stats.TotalAssets,
		AssetsAtRisk:    stats.AssetsAtRisk,
	})
}

// @Summary Get feed liveness
// @Description Get the synchronizer liveness state and the last refresh timestamp. Requires API key.
// @Tags Feed
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} FeedStatusResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /feed/status [get]
func (h *Handler) getFeedStatus(c *gin.Context) {
	liveness, lastRefresh := h.dashboard.FeedState()

	resp := FeedStatusResponse{Liveness: string(liveness)}
	if !lastRefresh.IsZero() {
		resp.LastRefresh = &lastRefresh
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Force a feed refresh
// @Description Run one refresh outside the poll cadence. Requires API key.
// @Tags Feed
// @Produce json
// @Security ApiKeyAuth
// @Success 202 "Accepted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /feed/refresh [post]
func (h *Handler) forceRefresh(c *gin.Context) {
	h.dashboard.Refresh(c.Request.Context())
	c.Status(http.StatusAccepted)
}

// @Summary Press the panic button
// @Description Start hold detection. Escalation fires only when the press is held past the hold threshold. A press while the pipeline is busy is a no-op. Requires API key.
// @Tags Emergency
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param press body PanicPressRequest false "Optional client-resolved position"
// @Success 202 {object} PanicStatusResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} PanicStatusResponse "Pipeline busy"
// @Router /panic/press [post]
func (h *Handler) panicPress(c *gin.Context) {
	log := h.logger.WithField("method", "panicPress")

	var input PanicPressRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			log.WithError(err).Warn("Failed to bind JSON")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := h.validate.Struct(input); err != nil {
			log.WithError(err).Warn("Validation failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	coord := coordinateFrom(input.Latitude, input.Longitude)
	if !h.pipeline.Press(coord) {
		state, _ := h.pipeline.Status()
		c.JSON(http.StatusConflict, PanicStatusResponse{State: string(state)})
		return
	}

	state, _ := h.pipeline.Status()
	c.JSON(http.StatusAccepted, PanicStatusResponse{State: string(state)})
}

// @Summary Release the panic button
// @Description Cancel a pending press before the hold threshold. Releasing early has zero side effects. Requires API key.
// @Tags Emergency
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} PanicStatusResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /panic/release [post]
func (h *Handler) panicRelease(c *gin.Context) {
	h.pipeline.Release()
	state, _ := h.pipeline.Status()
	c.JSON(http.StatusOK, PanicStatusResponse{State: string(state)})
}

// @Summary Get escalation status
// @Description Get the pipeline state and, once an attempt completed, its acknowledgment. Requires API key.
// @Tags Emergency
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} PanicStatusResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /panic/status [get]
func (h *Handler) panicStatus(c *gin.Context) {
	state, outcome := h.pipeline.Status()

	resp := PanicStatusResponse{State: string(state)}
	if outcome != nil {
		resp.Acknowledgment = outcome.Acknowledgment
		resp.Operator = outcome.Operator
		if outcome.IncidentID != uuid.Nil {
			resp.IncidentID = outcome.IncidentID.String()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
