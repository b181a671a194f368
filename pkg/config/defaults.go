package config

import "time"

// ApplyDefaults normalizes zero-valued fields of cfg to the engine's
// defaults, following the teacher's per-section applyXxxDefaults
// convention.
func ApplyDefaults(cfg *Config) {
	applyTimingDefaults(&cfg.Timing)
	applyStoreDefaults(&cfg.Store)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.Separator == "" {
		cfg.Separator = "SOH"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
}

func applyTimingDefaults(t *TimingConfig) {
	if t.HeartBtInt == 0 {
		t.HeartBtInt = 30 * time.Second
	}
	if t.LogonTimeout == 0 {
		t.LogonTimeout = 10 * time.Second
	}
	if t.TestReqTimeout == 0 {
		t.TestReqTimeout = 5 * time.Second
	}
	if t.HeartbeatThreshold == 0 {
		t.HeartbeatThreshold = 2 * time.Second
	}
	if t.ShutdownTimeout == 0 {
		t.ShutdownTimeout = 5 * time.Second
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = "memory"
	}
	if s.Backend == "badger" && s.Path == "" {
		s.Path = "./fixengine-store"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "INFO"
	}
	if l.Format == "" {
		l.Format = "text"
	}
	if l.Output == "" {
		l.Output = "stdout"
	}
}

func applyMetricsDefaults(m *MetricsConfig) {
	if m.Port == 0 {
		m.Port = 9090
	}
}
