package config

import "fmt"

// Validate rejects configuration that cannot produce a working engine.
func Validate(cfg *Config) error {
	switch cfg.Role {
	case "initiator", "acceptor":
	default:
		return fmt.Errorf("role must be \"initiator\" or \"acceptor\", got %q", cfg.Role)
	}

	if cfg.SenderCompID == "" {
		return fmt.Errorf("sender_comp_id is required")
	}
	if cfg.TargetCompID == "" {
		return fmt.Errorf("target_comp_id is required")
	}

	if cfg.Role == "acceptor" && cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required for an acceptor")
	}
	if cfg.Role == "initiator" && cfg.DialAddr == "" {
		return fmt.Errorf("dial_addr is required for an initiator")
	}

	switch cfg.Store.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("store.backend must be \"memory\" or \"badger\", got %q", cfg.Store.Backend)
	}
	if cfg.Store.Backend == "badger" && cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required for the badger backend")
	}

	if _, err := cfg.SeparatorByte(); err != nil {
		return err
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("tls.cert_file and tls.key_file are required when tls.enabled is true")
		}
	}

	if cfg.Window.StartTime != "" || cfg.Window.EndTime != "" {
		if cfg.Window.StartTime == "" || cfg.Window.EndTime == "" {
			return fmt.Errorf("window.start_time and window.end_time must both be set")
		}
		if cfg.Window.TimeZone == "" {
			return fmt.Errorf("window.time_zone is required when a session window is set")
		}
	}

	return nil
}
