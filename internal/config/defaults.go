package config

import "time"

// SetDefaults fills in any fields left unset by the config file/environment.
func SetDefaults(cfg *Config) {
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "dt-ingest.db"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 8
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 4
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	if cfg.Fleet.MinCallInterval == 0 {
		cfg.Fleet.MinCallInterval = 2 * time.Second
	}

	if cfg.Scheduler.Shift1TriggerAt == "" {
		cfg.Scheduler.Shift1TriggerAt = "20:30"
	}
	if cfg.Scheduler.Shift2TriggerAt == "" {
		cfg.Scheduler.Shift2TriggerAt = "08:30"
	}
	if cfg.Scheduler.RouteListLookbackDays == 0 {
		cfg.Scheduler.RouteListLookbackDays = 7
	}
	if cfg.Scheduler.RequestLookbackMonths == 0 {
		cfg.Scheduler.RequestLookbackMonths = 2
	}
	if cfg.Scheduler.HTTPServerAddr == "" {
		cfg.Scheduler.HTTPServerAddr = ":8080"
	}
	if cfg.Scheduler.ShutdownTimeout == 0 {
		cfg.Scheduler.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}
