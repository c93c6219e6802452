package config

import "time"

// FleetConfig holds the upstream fleet-tracking service client configuration.
type FleetConfig struct {
	// BaseURL of the fleet-tracking service's command endpoint.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Credentials is the ordered token pool (§4.1). At least one required.
	Credentials []string `mapstructure:"credentials" validate:"required,min=1"`

	// MinCallInterval is the per-vehicle rate limiter gap (§4.2).
	MinCallInterval time.Duration `mapstructure:"min_call_interval" validate:"required"`

	// TestVehicleIDs, when non-empty, switches RouteListParser into test mode.
	TestVehicleIDs []int `mapstructure:"test_vehicle_ids"`
}
