package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkarpenko/ops_awareness_system/internal/alerts"
	"github.com/vkarpenko/ops_awareness_system/internal/config"
	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
	escalation_mocks "github.com/vkarpenko/ops_awareness_system/internal/escalation/mocks"
	"github.com/vkarpenko/ops_awareness_system/internal/feed"
	"github.com/vkarpenko/ops_awareness_system/internal/geomap"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
	"github.com/vkarpenko/ops_awareness_system/internal/service/mocks"
	"go.uber.org/mock/gomock"
)

// newTestHandler wires a Handler over a mocked dashboard service and a real
// escalation pipeline with a one-hour hold, so no escalation fires unless a
// test wants it to.
func newTestHandler(t *testing.T) (*Handler, *mocks.MockDashboardService, *escalation.Pipeline, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockDashboardService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		APIKeys:         []string{"test-api-key"},
		AlertDisplayCap: 3,
	}

	pipeline := escalation.NewPipeline(escalation.Config{
		HoldDuration:    time.Hour,
		GeoTimeout:      time.Second,
		DispatchTimeout: time.Second,
		Cooldown:        time.Hour,
		OpsEmail:        "ops@example.com",
	},
		escalation_mocks.NewMockIdentityProvider(ctrl),
		escalation_mocks.NewMockIncidentCreator(ctrl),
		escalation_mocks.NewMockNotifier(ctrl),
		escalation_mocks.NewMockLocator(ctrl),
		logger,
	)
	t.Cleanup(pipeline.Stop)

	handler := NewHandler(mockService, pipeline, logger, cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return handler, mockService, pipeline, router
}

func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateIncident_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	incidentID := uuid.New()
	lat, lon := 40.7128, -74.006
	reqBody := CreateIncidentRequest{
		Title:     "Roadblock near HQ",
		Severity:  "high",
		Latitude:  &lat,
		Longitude: &lon,
		RadiusKM:  1.5,
	}

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			inc.ID = incidentID
			inc.Status = models.StatusActive
			return nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, reqBody.Title, resp.Title)
	assert.Equal(t, "active", resp.Status)
	require.NotNil(t, resp.Latitude)
	assert.Equal(t, lat, *resp.Latitude)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"title": "broken`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_ValidationError(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		Title:    "Missing severity",
		Severity: "apocalyptic",
	}

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Severity' failed on the 'oneof' tag")
}

func TestCreateIncident_LatitudeWithoutLongitude(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	lat := 40.7128
	reqBody := CreateIncidentRequest{
		Title:    "Half a coordinate",
		Severity: "low",
		Latitude: &lat,
	}

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "latitude and longitude must be provided together")
}

func TestCreateIncident_ServiceError(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{Title: "Any incident", Severity: "medium"}

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestListIncidents_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	expected := []*models.Incident{
		{ID: uuid.New(), Title: "Incident 1", Status: models.StatusActive},
		{ID: uuid.New(), Title: "Incident 2", Status: models.StatusResolved},
	}

	mockService.EXPECT().ListIncidents(gomock.Any()).Return(expected, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, expected[0].Title, resp[0].Title)
}

func TestGetIncident_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	incidentID := uuid.New()
	expected := &models.Incident{
		ID:       incidentID,
		Title:    "Retrieved",
		Severity: models.SeverityLow,
		Status:   models.StatusMonitoring,
	}

	mockService.EXPECT().GetIncident(gomock.Any(), incidentID).Return(expected, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, incidentID, resp.ID)
	assert.Nil(t, resp.Latitude)
}

func TestGetIncident_InvalidID(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, errors.New("no rows")).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestUpdateIncident_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := UpdateIncidentRequest{
		Title:    "Updated title",
		Severity: "critical",
		Status:   "contained",
	}

	mockService.EXPECT().
		UpdateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			assert.Equal(t, incidentID, inc.ID)
			assert.Equal(t, models.SeverityCritical, inc.Severity)
			assert.Equal(t, models.StatusContained, inc.Status)
			return nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", fmt.Sprintf("/api/v1/incidents/%s", incidentID), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateIncident_ServiceError(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := UpdateIncidentRequest{Title: "Updated title", Severity: "low", Status: "active"}

	mockService.EXPECT().UpdateIncident(gomock.Any(), gomock.Any()).Return(errors.New("not found")).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", fmt.Sprintf("/api/v1/incidents/%s", incidentID), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to update incident")
}

func TestDeleteIncident_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().DeactivateIncident(gomock.Any(), incidentID).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListAssets_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	expected := []*models.Asset{
		{ID: uuid.New(), Name: "Principal", AssetType: models.AssetExecutive, Status: models.AssetSafe},
	}

	mockService.EXPECT().ListAssets(gomock.Any()).Return(expected, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/assets", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []AssetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Principal", resp[0].Name)
	assert.Equal(t, "executive", resp[0].AssetType)
}

func TestCheckInAsset_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	assetID := uuid.New()
	reqBody := CheckInRequest{Latitude: 48.85, Longitude: 2.35, Status: "in_transit"}

	mockService.EXPECT().
		CheckInAsset(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, check *models.CheckIn) error {
			assert.Equal(t, assetID, check.AssetID)
			assert.Equal(t, models.AssetInTransit, check.Status)
			return nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", fmt.Sprintf("/api/v1/assets/%s/checkin", assetID), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCheckInAsset_ValidationError(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	assetID := uuid.New()
	reqBody := CheckInRequest{Latitude: 48.85, Longitude: 2.35, Status: "kidnapped"}

	mockService.EXPECT().CheckInAsset(gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", fmt.Sprintf("/api/v1/assets/%s/checkin", assetID), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Status' failed on the 'oneof' tag")
}

func TestGetMarkers_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	markers := []*geomap.Marker{
		{ID: uuid.New().String(), Kind: geomap.KindIncident, Position: models.Coordinate{Latitude: 1, Longitude: 2}},
	}

	mockService.EXPECT().Markers(gomock.Any()).Return(markers, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/map/markers", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []*geomap.Marker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, geomap.KindIncident, resp[0].Kind)
}

func TestGetAlerts_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	summary := alerts.Summary{
		Alerts: []models.Alert{{ID: uuid.New(), Title: "Active threat", Severity: models.SeverityCritical}},
		Total:  5,
	}

	mockService.EXPECT().Alerts(gomock.Any()).Return(summary, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/alerts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp AlertSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Alerts, 1)
	assert.Equal(t, 5, resp.Total)
}

func TestGetStats_Success(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	stats := &models.Stats{
		TotalIncidents:  4,
		ActiveThreats:   1,
		UnmappedRecords: 2,
		BySeverity:      map[models.Severity]int{models.SeverityHigh: 3},
	}

	mockService.EXPECT().Stats(gomock.Any()).Return(stats, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalIncidents)
	assert.Equal(t, 2, resp.UnmappedRecords)
	assert.Equal(t, 3, resp.BySeverity[models.SeverityHigh])
}

func TestGetFeedStatus_Idle(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)

	mockService.EXPECT().FeedState().Return(feed.LivenessIdle, time.Time{}).Times(1)

	w := makeRequest(router, "GET", "/api/v1/feed/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp FeedStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.Liveness)
	assert.Nil(t, resp.LastRefresh)
}

func TestGetFeedStatus_Live(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)
	refreshed := time.Now().UTC().Truncate(time.Second)

	mockService.EXPECT().FeedState().Return(feed.LivenessLive, refreshed).Times(1)

	w := makeRequest(router, "GET", "/api/v1/feed/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp FeedStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "live", resp.Liveness)
	require.NotNil(t, resp.LastRefresh)
	assert.True(t, refreshed.Equal(*resp.LastRefresh))
}

func TestForceRefresh_Accepted(t *testing.T) {
	_, mockService, _, router := newTestHandler(t)

	mockService.EXPECT().Refresh(gomock.Any()).Times(1)

	w := makeRequest(router, "POST", "/api/v1/feed/refresh", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestPanicPress_Accepted(t *testing.T) {
	_, _, pipeline, router := newTestHandler(t)

	w := makeRequest(router, "POST", "/api/v1/panic/press", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var resp PanicStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pressing", resp.State)

	pipeline.Release()
}

func TestPanicPress_WithCoordinate(t *testing.T) {
	_, _, pipeline, router := newTestHandler(t)
	lat, lon := 40.0, -75.0
	reqBody := PanicPressRequest{Latitude: &lat, Longitude: &lon}

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/panic/press", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusAccepted, w.Code)
	pipeline.Release()
}

func TestPanicPress_BusyConflict(t *testing.T) {
	_, _, pipeline, router := newTestHandler(t)

	first := makeRequest(router, "POST", "/api/v1/panic/press", nil)
	require.Equal(t, http.StatusAccepted, first.Code)

	second := makeRequest(router, "POST", "/api/v1/panic/press", nil)
	assert.Equal(t, http.StatusConflict, second.Code)

	var resp PanicStatusResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "pressing", resp.State)

	pipeline.Release()
}

func TestPanicRelease_ReturnsIdle(t *testing.T) {
	_, _, _, router := newTestHandler(t)

	press := makeRequest(router, "POST", "/api/v1/panic/press", nil)
	require.Equal(t, http.StatusAccepted, press.Code)

	w := makeRequest(router, "POST", "/api/v1/panic/release", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp PanicStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.State)
}

func TestPanicStatus_Idle(t *testing.T) {
	_, _, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/panic/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp PanicStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.State)
	assert.Empty(t, resp.Acknowledgment)
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAPIKeyAuthMiddleware_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{APIKeys: []string{"valid-key"}}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"X-API-Key": "valid-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuthMiddleware_BearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{APIKeys: []string{"valid-key"}}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"Authorization": "Bearer valid-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuthMiddleware_MissingKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{APIKeys: []string{"valid-key"}}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")
}

func TestAPIKeyAuthMiddleware_InvalidKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{APIKeys: []string{"valid-key"}}

	router.Use(APIKeyAuthMiddleware(cfg, logger))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := makeRequest(router, "GET", "/test", nil, map[string]string{"X-API-Key": "wrong-key"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}
