package config

import "time"

// SchedulerConfig holds the two fixed daily trigger times (§4.14), expressed
// as "HH:MM" in the operational timezone.
type SchedulerConfig struct {
	Shift1TriggerAt string `mapstructure:"shift1_trigger_at" validate:"required"`
	Shift2TriggerAt string `mapstructure:"shift2_trigger_at" validate:"required"`

	// RouteListLookbackDays is validated and defaulted but not read by the
	// orchestrator, which always fetches route lists over [date-7d, date]
	// (§4.13 step 2).
	RouteListLookbackDays int `mapstructure:"route_list_lookback_days" validate:"min=1"`

	// RequestLookbackMonths is validated and defaulted but not read by the
	// orchestrator, which always fetches requests over a fixed 2-month
	// window (step 4).
	RequestLookbackMonths int `mapstructure:"request_lookback_months" validate:"min=1"`

	// HTTPServerAddr is the address the read API (C16) listens on.
	HTTPServerAddr string `mapstructure:"http_server_addr" validate:"required"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
