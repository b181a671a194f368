package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/quorumfx/fixengine/internal/logger"
	"github.com/quorumfx/fixengine/internal/metrics"
	"github.com/quorumfx/fixengine/pkg/codec"
	"github.com/quorumfx/fixengine/pkg/config"
	"github.com/quorumfx/fixengine/pkg/protocol"
	"github.com/quorumfx/fixengine/pkg/session"
)

var startInitiatorCmd = &cobra.Command{
	Use:   "start-initiator",
	Short: "Run as the initiator of a FIX session",
	Long: `Connect to a FIX acceptor and drive the session as the initiator:
send the opening Logon and maintain sequence numbers and heartbeats
until the process is stopped.

Examples:
  fixengine start-initiator
  fixengine start-initiator --config /etc/fixengine/initiator.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine("initiator")
	},
}

var startAcceptorCmd = &cobra.Command{
	Use:   "start-acceptor",
	Short: "Run as the acceptor of a FIX session",
	Long: `Listen for an inbound TCP connection and drive the session as the
acceptor: validate the counterparty's Logon, then maintain sequence
numbers and heartbeats until the process is stopped.

Examples:
  fixengine start-acceptor
  fixengine start-acceptor --config /etc/fixengine/acceptor.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine("acceptor")
	},
}

func runEngine(wantRole string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	if cfg.Role != wantRole {
		return fmt.Errorf("config role is %q, but this command requires %q", cfg.Role, wantRole)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	proto, err := loadProtocol(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sep, err := cfg.SeparatorByte()
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	} else {
		m = metrics.Null()
	}

	role := session.RoleInitiator
	if wantRole == "acceptor" {
		role = session.RoleAcceptor
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return err
	}

	var window *session.Window
	if cfg.Window.StartTime != "" {
		window, err = session.NewWindow(cfg.Window.StartTime, cfg.Window.EndTime, cfg.Window.TimeZone)
		if err != nil {
			return err
		}
	}

	engineCfg := session.EngineConfig{
		Role:     role,
		Protocol: proto,
		ID: session.ID{
			SenderCompID: cfg.SenderCompID,
			TargetCompID: cfg.TargetCompID,
		},
		Sep:                   sep,
		ConvertSepForChecksum: cfg.ConvertSepForChecksum,
		HeartBtInt:            cfg.Timing.HeartBtInt,
		LogonTimeout:          cfg.Timing.LogonTimeout,
		TestReqTimeout:        cfg.Timing.TestReqTimeout,
		HeartbeatThreshold:    cfg.Timing.HeartbeatThreshold,
		ShutdownTimeout:       cfg.Timing.ShutdownTimeout,
		Window:                window,
		TLSConfig:             tlsCfg,
		ListenAddr:            cfg.ListenAddr,
		DialAddr:              cfg.DialAddr,
		DialTimeout:           cfg.DialTimeout,
	}

	cb := session.Callbacks{
		OnAppMessage: func(ctx context.Context, msg codec.Message, md *protocol.MessageDef, _ *session.Orchestrator) {
			logger.InfoCtx(ctx, "application message received", "message", md.Name)
		},
		OnStateChange: func(from, to session.AdminState) {
			logger.Info("session state changed", "from", from, "to", to)
		},
		OnLogonRejected: func(reason string) {
			logger.Warn("logon rejected", "reason", reason)
		},
	}

	engine := session.NewEngine(engineCfg, store, cb, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		engine.Stop()
	}()

	if wantRole == "acceptor" {
		return engine.Serve(ctx)
	}
	return engine.Dial(ctx)
}

func loadProtocol(cfg *config.Config) (*protocol.Protocol, error) {
	if cfg.Dictionary == "" {
		return protocol.Bundled()
	}
	return protocol.Load(cfg.Dictionary)
}

func openStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.Store.Backend {
	case "badger":
		st, err := session.OpenBadgerStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger store: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}
