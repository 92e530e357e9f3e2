package taxonomy

import "github.com/vkarpenko/ops_awareness_system/internal/models"

// Style is a renderer-agnostic visual encoding for one record.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Kind selects which enum domain a value belongs to.
type Kind string

const (
	KindSeverity       Kind = "severity"
	KindIncidentStatus Kind = "incident_status"
	KindAssetStatus    Kind = "asset_status"
	KindAssetType      Kind = "asset_type"
)

// Defaults used for any value outside the known domains. Upstream data is
// not validated, so every lookup must resolve.
const (
	defaultColor = "#d97706"
	defaultIcon  = "map-pin"
)

var severityStyles = map[models.Severity]Style{
	models.SeverityCritical: {Color: "#dc2626", Icon: "alert-octagon"},
	models.SeverityHigh:     {Color: "#ea580c", Icon: "alert-triangle"},
	models.SeverityMedium:   {Color: "#d97706", Icon: "alert-circle"},
	models.SeverityLow:      {Color: "#65a30d", Icon: "info"},
}

var incidentStatusStyles = map[models.IncidentStatus]Style{
	models.StatusActive:     {Color: "#dc2626", Icon: "flame"},
	models.StatusMonitoring: {Color: "#d97706", Icon: "eye"},
	models.StatusContained:  {Color: "#0284c7", Icon: "shield"},
	models.StatusResolved:   {Color: "#16a34a", Icon: "check-circle"},
}

var assetStatusStyles = map[models.AssetStatus]Style{
	models.AssetSafe:      {Color: "#16a34a", Icon: "shield-check"},
	models.AssetInTransit: {Color: "#0284c7", Icon: "navigation"},
	models.AssetAtRisk:    {Color: "#d97706", Icon: "shield-alert"},
	models.AssetEmergency: {Color: "#dc2626", Icon: "siren"},
}

var assetTypeIcons = map[models.AssetType]string{
	models.AssetExecutive:  "briefcase",
	models.AssetVIP:        "star",
	models.AssetFacility:   "building",
	models.AssetVehicle:    "truck",
	models.AssetTeamMember: "users",
	models.AssetOther:      "map-pin",
}

// ForSeverity returns the style for a severity value, defaulting for
// unknown values.
func ForSeverity(s models.Severity) Style {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	return Style{Color: defaultColor, Icon: defaultIcon}
}

// ForIncidentStatus returns the style for an incident status.
func ForIncidentStatus(s models.IncidentStatus) Style {
	if st, ok := incidentStatusStyles[s]; ok {
		return st
	}
	return Style{Color: defaultColor, Icon: defaultIcon}
}

// ForAssetStatus returns the style for an asset status. Asset status drives
// marker color independent of asset type.
func ForAssetStatus(s models.AssetStatus) Style {
	if st, ok := assetStatusStyles[s]; ok {
		return st
	}
	return Style{Color: defaultColor, Icon: defaultIcon}
}

// ForAssetType returns the icon identifier for an asset type.
func ForAssetType(t models.AssetType) string {
	if icon, ok := assetTypeIcons[t]; ok {
		return icon
	}
	return defaultIcon
}

// StyleFor is the generic lookup over all enum domains. It is total: any
// kind/value pair resolves to a usable style.
func StyleFor(kind Kind, value string) Style {
	switch kind {
	case KindSeverity:
		return ForSeverity(models.Severity(value))
	case KindIncidentStatus:
		return ForIncidentStatus(models.IncidentStatus(value))
	case KindAssetStatus:
		return ForAssetStatus(models.AssetStatus(value))
	case KindAssetType:
		return Style{Color: defaultColor, Icon: ForAssetType(models.AssetType(value))}
	default:
		return Style{Color: defaultColor, Icon: defaultIcon}
	}
}
