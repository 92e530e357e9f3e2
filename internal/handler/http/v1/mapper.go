package v1

import "github.com/vkarpenko/ops_awareness_system/internal/models"

func coordinateFrom(lat, lon *float64) *models.Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &models.Coordinate{Latitude: *lat, Longitude: *lon}
}

// DTOToIncidentModel converts a create/update request into the domain
// model. One function covers both shapes since the fields match.
func DTOToIncidentModel(dto any) *models.Incident {
	switch v := dto.(type) {
	case CreateIncidentRequest:
		return &models.Incident{
			Title:          v.Title,
			Description:    v.Description,
			ThreatType:     v.ThreatType,
			Severity:       models.Severity(v.Severity),
			Status:         models.IncidentStatus(v.Status),
			Location:       coordinateFrom(v.Latitude, v.Longitude),
			RadiusKM:       v.RadiusKM,
			Recommendation: v.Recommendation,
			Verified:       v.Verified,
			Source:         v.Source,
		}
	case UpdateIncidentRequest:
		return &models.Incident{
			Title:          v.Title,
			Description:    v.Description,
			ThreatType:     v.ThreatType,
			Severity:       models.Severity(v.Severity),
			Status:         models.IncidentStatus(v.Status),
			Location:       coordinateFrom(v.Latitude, v.Longitude),
			RadiusKM:       v.RadiusKM,
			Recommendation: v.Recommendation,
			Verified:       v.Verified,
			Source:         v.Source,
		}
	}
	return nil
}

// ModelToIncidentResponse converts a domain model into a response DTO.
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	resp := &IncidentResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		ThreatType:     model.ThreatType,
		Severity:       string(model.Severity),
		Status:         string(model.Status),
		RadiusKM:       model.RadiusKM,
		Recommendation: model.Recommendation,
		Verified:       model.Verified,
		Source:         model.Source,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
	if model.Location != nil {
		lat, lon := model.Location.Latitude, model.Location.Longitude
		resp.Latitude, resp.Longitude = &lat, &lon
	}
	return resp
}

// ModelsToIncidentResponses converts a slice of models into response DTOs.
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, model := range incidents {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

// ModelToAssetResponse converts an asset model into a response DTO.
func ModelToAssetResponse(model *models.Asset) *AssetResponse {
	resp := &AssetResponse{
		ID:              model.ID,
		Name:            model.Name,
		AssetType:       string(model.AssetType),
		Status:          string(model.Status),
		CurrentLocation: model.CurrentLocation,
		SecurityLevel:   model.SecurityLevel,
		LastCheckIn:     model.LastCheckIn,
	}
	if model.Location != nil {
		lat, lon := model.Location.Latitude, model.Location.Longitude
		resp.Latitude, resp.Longitude = &lat, &lon
	}
	return resp
}

// ModelsToAssetResponses converts a slice of assets into response DTOs.
func ModelsToAssetResponses(assets []*models.Asset) []*AssetResponse {
	responses := make([]*AssetResponse, len(assets))
	for i, model := range assets {
		responses[i] = ModelToAssetResponse(model)
	}
	return responses
}
