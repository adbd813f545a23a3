package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
// This is the single source of truth for all default scoring values.
const DefaultConfigPath = "config/risk.defaults.json"

// EngineConfig represents the root configuration for the risk engine.
// All fields are pointers so that partial JSON files only override the
// values they name; the Get* accessors supply defaults for the rest.
// The same JSON schema is served back on /api/config so operators can
// inspect the effective configuration at runtime.
type EngineConfig struct {
	// Attribute normalizer params
	PersonMinConfidence *float64 `json:"person_min_confidence,omitempty"`
	KnifeMinConfidence  *float64 `json:"knife_min_confidence,omitempty"`
	WeaponMinConfidence *float64 `json:"weapon_min_confidence,omitempty"`

	// Scenario classifier params. Radii are fractions of the frame diagonal.
	GroupProximityFraction  *float64 `json:"group_proximity_fraction,omitempty"`
	WeaponProximityFraction *float64 `json:"weapon_proximity_fraction,omitempty"`
	SurroundedMinMen        *int     `json:"surrounded_min_men,omitempty"`

	// Scorer weights
	BasePresenceWeight        *float64 `json:"base_presence_weight,omitempty"`
	FemaleVulnerabilityWeight *float64 `json:"female_vulnerability_weight,omitempty"`
	MaleBaseWeight            *float64 `json:"male_base_weight,omitempty"`
	UnknownGenderWeight       *float64 `json:"unknown_gender_weight,omitempty"`
	RatioImpactWeight         *float64 `json:"ratio_impact_weight,omitempty"`
	RatioImpactCap            *float64 `json:"ratio_impact_cap,omitempty"`
	LoneWomanWeight           *float64 `json:"lone_woman_weight,omitempty"`
	LoneWomanNoMenWeight      *float64 `json:"lone_woman_no_men_weight,omitempty"`
	SurroundedWeight          *float64 `json:"surrounded_weight,omitempty"`
	SurroundedPerExtraMan     *float64 `json:"surrounded_per_extra_man,omitempty"`
	DistressWeight            *float64 `json:"distress_weight,omitempty"`
	ArmedPairWeight           *float64 `json:"armed_pair_weight,omitempty"`
	ArmedWomanMultiplier      *float64 `json:"armed_woman_multiplier,omitempty"`
	UnassociatedWeaponWeight  *float64 `json:"unassociated_weapon_weight,omitempty"`

	// Context multipliers
	NightStartHour     *int     `json:"night_start_hour,omitempty"`
	NightEndHour       *int     `json:"night_end_hour,omitempty"`
	NightMultiplier    *float64 `json:"night_multiplier,omitempty"`
	LocationMultiplier *float64 `json:"location_multiplier,omitempty"`
	Timezone           *string  `json:"timezone,omitempty"`

	// Score normalization (logistic curve)
	SigmoidSlope    *float64 `json:"sigmoid_slope,omitempty"`
	SigmoidMidpoint *float64 `json:"sigmoid_midpoint,omitempty"`

	// Threat level boundaries. Scores below ThreatLowBoundary are SAFE;
	// each boundary is closed on the left (score == boundary maps to the
	// higher band).
	ThreatLowBoundary      *float64 `json:"threat_low_boundary,omitempty"`
	ThreatModerateBoundary *float64 `json:"threat_moderate_boundary,omitempty"`
	ThreatHighBoundary     *float64 `json:"threat_high_boundary,omitempty"`
	ThreatCriticalBoundary *float64 `json:"threat_critical_boundary,omitempty"`

	// Zone accumulator params
	ZoneDecay *float64 `json:"zone_decay,omitempty"`

	// Alerting params
	AlertCooldownSeconds *int `json:"alert_cooldown_seconds,omitempty"`

	// Cameras maps stream identifiers to site metadata for alert geotagging
	// and zone keys. An empty list is valid; alerts then carry no coordinates.
	Cameras []CameraConfig `json:"cameras,omitempty"`
}

// CameraConfig describes one configured camera/stream.
type CameraConfig struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Enabled   *bool    `json:"enabled,omitempty"`
}

// EmptyEngineConfig returns an EngineConfig with all fields set to nil.
// Use LoadEngineConfig to load actual values from a JSON file.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// LoadEngineConfig loads an EngineConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their defaults,
// so partial configs are safe.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical engine defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Any violation is
// fatal at load time: a bad weight must never be discovered mid-stream.
func (c *EngineConfig) Validate() error {
	fractions := map[string]*float64{
		"person_min_confidence":     c.PersonMinConfidence,
		"knife_min_confidence":      c.KnifeMinConfidence,
		"weapon_min_confidence":     c.WeaponMinConfidence,
		"group_proximity_fraction":  c.GroupProximityFraction,
		"weapon_proximity_fraction": c.WeaponProximityFraction,
	}
	for name, v := range fractions {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	weights := map[string]*float64{
		"base_presence_weight":        c.BasePresenceWeight,
		"female_vulnerability_weight": c.FemaleVulnerabilityWeight,
		"male_base_weight":            c.MaleBaseWeight,
		"unknown_gender_weight":       c.UnknownGenderWeight,
		"ratio_impact_weight":         c.RatioImpactWeight,
		"ratio_impact_cap":            c.RatioImpactCap,
		"lone_woman_weight":           c.LoneWomanWeight,
		"lone_woman_no_men_weight":    c.LoneWomanNoMenWeight,
		"surrounded_weight":           c.SurroundedWeight,
		"surrounded_per_extra_man":    c.SurroundedPerExtraMan,
		"distress_weight":             c.DistressWeight,
		"armed_pair_weight":           c.ArmedPairWeight,
		"unassociated_weapon_weight":  c.UnassociatedWeaponWeight,
	}
	for name, v := range weights {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	if c.SurroundedMinMen != nil && *c.SurroundedMinMen < 1 {
		return fmt.Errorf("surrounded_min_men must be >= 1, got %d", *c.SurroundedMinMen)
	}

	if c.NightStartHour != nil && (*c.NightStartHour < 0 || *c.NightStartHour > 23) {
		return fmt.Errorf("night_start_hour must be in [0,23], got %d", *c.NightStartHour)
	}
	if c.NightEndHour != nil && (*c.NightEndHour < 0 || *c.NightEndHour > 23) {
		return fmt.Errorf("night_end_hour must be in [0,23], got %d", *c.NightEndHour)
	}
	if c.NightMultiplier != nil && *c.NightMultiplier < 1.0 {
		return fmt.Errorf("night_multiplier must be >= 1.0, got %f", *c.NightMultiplier)
	}
	if c.ArmedWomanMultiplier != nil && *c.ArmedWomanMultiplier < 1.0 {
		return fmt.Errorf("armed_woman_multiplier must be >= 1.0, got %f", *c.ArmedWomanMultiplier)
	}
	if c.LocationMultiplier != nil && *c.LocationMultiplier <= 0 {
		return fmt.Errorf("location_multiplier must be positive, got %f", *c.LocationMultiplier)
	}
	if c.Timezone != nil && *c.Timezone != "" {
		if _, err := time.LoadLocation(*c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", *c.Timezone, err)
		}
	}

	if c.SigmoidSlope != nil && *c.SigmoidSlope <= 0 {
		return fmt.Errorf("sigmoid_slope must be positive, got %f", *c.SigmoidSlope)
	}

	// Threat boundaries must remain ordered and contiguous: each boundary
	// strictly above the previous, all inside (0, 100].
	bounds := []struct {
		name string
		v    float64
	}{
		{"threat_low_boundary", c.GetThreatLowBoundary()},
		{"threat_moderate_boundary", c.GetThreatModerateBoundary()},
		{"threat_high_boundary", c.GetThreatHighBoundary()},
		{"threat_critical_boundary", c.GetThreatCriticalBoundary()},
	}
	prev := 0.0
	for _, b := range bounds {
		if b.v <= prev || b.v > 100 {
			return fmt.Errorf("%s must be in (%.1f, 100], got %f", b.name, prev, b.v)
		}
		prev = b.v
	}

	if c.ZoneDecay != nil && (*c.ZoneDecay <= 0 || *c.ZoneDecay >= 1) {
		return fmt.Errorf("zone_decay must be in (0,1) exclusive, got %f", *c.ZoneDecay)
	}
	if c.AlertCooldownSeconds != nil && *c.AlertCooldownSeconds < 0 {
		return fmt.Errorf("alert_cooldown_seconds must be non-negative, got %d", *c.AlertCooldownSeconds)
	}

	seen := make(map[string]bool)
	for _, cam := range c.Cameras {
		if cam.ID == "" {
			return fmt.Errorf("camera entries must have an id")
		}
		if seen[cam.ID] {
			return fmt.Errorf("duplicate camera id %q", cam.ID)
		}
		seen[cam.ID] = true
	}

	return nil
}

// GetPersonMinConfidence returns the person_min_confidence value or the default.
func (c *EngineConfig) GetPersonMinConfidence() float64 {
	if c.PersonMinConfidence == nil {
		return 0.25
	}
	return *c.PersonMinConfidence
}

// GetKnifeMinConfidence returns the knife_min_confidence value or the default.
// Knife detection is deliberately over-sensitive: a higher false-positive
// rate is accepted in exchange for near-zero false negatives.
func (c *EngineConfig) GetKnifeMinConfidence() float64 {
	if c.KnifeMinConfidence == nil {
		return 0.08
	}
	return *c.KnifeMinConfidence
}

// GetWeaponMinConfidence returns the weapon_min_confidence value or the default.
func (c *EngineConfig) GetWeaponMinConfidence() float64 {
	if c.WeaponMinConfidence == nil {
		return 0.20
	}
	return *c.WeaponMinConfidence
}

// GetGroupProximityFraction returns the group_proximity_fraction value or the default.
func (c *EngineConfig) GetGroupProximityFraction() float64 {
	if c.GroupProximityFraction == nil {
		return 0.25
	}
	return *c.GroupProximityFraction
}

// GetWeaponProximityFraction returns the weapon_proximity_fraction value or the default.
func (c *EngineConfig) GetWeaponProximityFraction() float64 {
	if c.WeaponProximityFraction == nil {
		return 0.125
	}
	return *c.WeaponProximityFraction
}

// GetSurroundedMinMen returns the surrounded_min_men value or the default.
func (c *EngineConfig) GetSurroundedMinMen() int {
	if c.SurroundedMinMen == nil {
		return 2
	}
	return *c.SurroundedMinMen
}

// GetBasePresenceWeight returns the base_presence_weight value or the default.
func (c *EngineConfig) GetBasePresenceWeight() float64 {
	if c.BasePresenceWeight == nil {
		return 0.05
	}
	return *c.BasePresenceWeight
}

// GetFemaleVulnerabilityWeight returns the female_vulnerability_weight value or the default.
func (c *EngineConfig) GetFemaleVulnerabilityWeight() float64 {
	if c.FemaleVulnerabilityWeight == nil {
		return 0.8
	}
	return *c.FemaleVulnerabilityWeight
}

// GetMaleBaseWeight returns the male_base_weight value or the default.
func (c *EngineConfig) GetMaleBaseWeight() float64 {
	if c.MaleBaseWeight == nil {
		return 0.25
	}
	return *c.MaleBaseWeight
}

// GetUnknownGenderWeight returns the unknown_gender_weight value or the default.
func (c *EngineConfig) GetUnknownGenderWeight() float64 {
	if c.UnknownGenderWeight == nil {
		return 0.1
	}
	return *c.UnknownGenderWeight
}

// GetRatioImpactWeight returns the ratio_impact_weight value or the default.
func (c *EngineConfig) GetRatioImpactWeight() float64 {
	if c.RatioImpactWeight == nil {
		return 0.3
	}
	return *c.RatioImpactWeight
}

// GetRatioImpactCap returns the ratio_impact_cap value or the default.
func (c *EngineConfig) GetRatioImpactCap() float64 {
	if c.RatioImpactCap == nil {
		return 1.5
	}
	return *c.RatioImpactCap
}

// GetLoneWomanWeight returns the lone_woman_weight value or the default.
func (c *EngineConfig) GetLoneWomanWeight() float64 {
	if c.LoneWomanWeight == nil {
		return 1.5
	}
	return *c.LoneWomanWeight
}

// GetLoneWomanNoMenWeight returns the lone_woman_no_men_weight value or the default.
func (c *EngineConfig) GetLoneWomanNoMenWeight() float64 {
	if c.LoneWomanNoMenWeight == nil {
		return 0.5
	}
	return *c.LoneWomanNoMenWeight
}

// GetSurroundedWeight returns the surrounded_weight value or the default.
func (c *EngineConfig) GetSurroundedWeight() float64 {
	if c.SurroundedWeight == nil {
		return 2.5
	}
	return *c.SurroundedWeight
}

// GetSurroundedPerExtraMan returns the surrounded_per_extra_man value or the default.
func (c *EngineConfig) GetSurroundedPerExtraMan() float64 {
	if c.SurroundedPerExtraMan == nil {
		return 0.5
	}
	return *c.SurroundedPerExtraMan
}

// GetDistressWeight returns the distress_weight value or the default.
func (c *EngineConfig) GetDistressWeight() float64 {
	if c.DistressWeight == nil {
		return 3.0
	}
	return *c.DistressWeight
}

// GetArmedPairWeight returns the armed_pair_weight value or the default.
func (c *EngineConfig) GetArmedPairWeight() float64 {
	if c.ArmedPairWeight == nil {
		return 2.0
	}
	return *c.ArmedPairWeight
}

// GetArmedWomanMultiplier returns the armed_woman_multiplier value or the default.
func (c *EngineConfig) GetArmedWomanMultiplier() float64 {
	if c.ArmedWomanMultiplier == nil {
		return 1.5
	}
	return *c.ArmedWomanMultiplier
}

// GetUnassociatedWeaponWeight returns the unassociated_weapon_weight value or the default.
func (c *EngineConfig) GetUnassociatedWeaponWeight() float64 {
	if c.UnassociatedWeaponWeight == nil {
		return 1.0
	}
	return *c.UnassociatedWeaponWeight
}

// GetNightStartHour returns the night_start_hour value or the default.
func (c *EngineConfig) GetNightStartHour() int {
	if c.NightStartHour == nil {
		return 22
	}
	return *c.NightStartHour
}

// GetNightEndHour returns the night_end_hour value or the default.
// The night window covers hours from night_start_hour through night_end_hour
// inclusive, wrapping midnight.
func (c *EngineConfig) GetNightEndHour() int {
	if c.NightEndHour == nil {
		return 5
	}
	return *c.NightEndHour
}

// GetNightMultiplier returns the night_multiplier value or the default.
func (c *EngineConfig) GetNightMultiplier() float64 {
	if c.NightMultiplier == nil {
		return 1.4
	}
	return *c.NightMultiplier
}

// GetLocationMultiplier returns the location_multiplier value or the default.
func (c *EngineConfig) GetLocationMultiplier() float64 {
	if c.LocationMultiplier == nil {
		return 1.0
	}
	return *c.LocationMultiplier
}

// GetTimezone returns the timezone value or the default.
func (c *EngineConfig) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return "UTC"
	}
	return *c.Timezone
}

// Location returns the configured timezone as a *time.Location.
// Validate has already confirmed the name loads; on any late failure UTC
// is returned rather than an error.
func (c *EngineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.GetTimezone())
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetSigmoidSlope returns the sigmoid_slope value or the default.
func (c *EngineConfig) GetSigmoidSlope() float64 {
	if c.SigmoidSlope == nil {
		return 0.35
	}
	return *c.SigmoidSlope
}

// GetSigmoidMidpoint returns the sigmoid_midpoint value or the default.
func (c *EngineConfig) GetSigmoidMidpoint() float64 {
	if c.SigmoidMidpoint == nil {
		return 8.0
	}
	return *c.SigmoidMidpoint
}

// GetThreatLowBoundary returns the threat_low_boundary value or the default.
func (c *EngineConfig) GetThreatLowBoundary() float64 {
	if c.ThreatLowBoundary == nil {
		return 15.0
	}
	return *c.ThreatLowBoundary
}

// GetThreatModerateBoundary returns the threat_moderate_boundary value or the default.
func (c *EngineConfig) GetThreatModerateBoundary() float64 {
	if c.ThreatModerateBoundary == nil {
		return 30.0
	}
	return *c.ThreatModerateBoundary
}

// GetThreatHighBoundary returns the threat_high_boundary value or the default.
func (c *EngineConfig) GetThreatHighBoundary() float64 {
	if c.ThreatHighBoundary == nil {
		return 70.0
	}
	return *c.ThreatHighBoundary
}

// GetThreatCriticalBoundary returns the threat_critical_boundary value or the default.
func (c *EngineConfig) GetThreatCriticalBoundary() float64 {
	if c.ThreatCriticalBoundary == nil {
		return 85.0
	}
	return *c.ThreatCriticalBoundary
}

// GetZoneDecay returns the zone_decay value or the default.
func (c *EngineConfig) GetZoneDecay() float64 {
	if c.ZoneDecay == nil {
		return 0.85
	}
	return *c.ZoneDecay
}

// GetAlertCooldown returns the alert cooldown as a time.Duration.
func (c *EngineConfig) GetAlertCooldown() time.Duration {
	if c.AlertCooldownSeconds == nil {
		return 300 * time.Second
	}
	return time.Duration(*c.AlertCooldownSeconds) * time.Second
}

// Camera returns the camera config for the given id, or nil if unknown.
func (c *EngineConfig) Camera(id string) *CameraConfig {
	for i := range c.Cameras {
		if c.Cameras[i].ID == id {
			return &c.Cameras[i]
		}
	}
	return nil
}
