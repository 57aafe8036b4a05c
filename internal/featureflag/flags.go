// Package featureflag fetches remote feature flags and publishes them to the
// rest of the application. Remote values are optional: every flag has a
// compiled-in default that is used whenever the remote source cannot answer.
package featureflag

import "strings"

const (
	KeyDarkModeEnabled    = "dark_mode_enabled"
	KeyAppVersionRequired = "app_version_required"
	KeyMaintenanceMode    = "maintenance_mode"
)

// Flags is the typed view of the declared remote keys.
type Flags struct {
	DarkModeEnabled    bool   `json:"darkModeEnabled"`
	AppVersionRequired string `json:"appVersionRequired"`
	MaintenanceMode    bool   `json:"maintenanceMode"`
}

// Defaults are applied when no remote values are available.
var Defaults = Flags{
	DarkModeEnabled:    true,
	AppVersionRequired: "1.0.0",
	MaintenanceMode:    false,
}

// FromValues overlays raw remote values on top of base. Keys missing from
// values keep the base value.
func FromValues(values map[string]string, base Flags) Flags {
	f := base
	if v, ok := values[KeyDarkModeEnabled]; ok {
		f.DarkModeEnabled = parseBool(v)
	}
	if v, ok := values[KeyAppVersionRequired]; ok {
		f.AppVersionRequired = v
	}
	if v, ok := values[KeyMaintenanceMode]; ok {
		f.MaintenanceMode = parseBool(v)
	}
	return f
}

// parseBool follows remote config semantics: anything outside the truthy set
// is false, including garbage.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}
