package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quorumfx/fixengine/internal/logger"
	"github.com/quorumfx/fixengine/internal/metrics"
	"github.com/quorumfx/fixengine/pkg/protocol"
)

// EngineConfig configures one running Engine: which side of the wire it
// plays, its protocol dictionary, CompID pair, timing, and which Store
// backs its sequence/message state.
type EngineConfig struct {
	Role     Role
	Protocol *protocol.Protocol
	ID       ID

	Sep                   byte
	ConvertSepForChecksum bool

	HeartBtInt         time.Duration
	LogonTimeout       time.Duration
	TestReqTimeout     time.Duration
	HeartbeatThreshold time.Duration

	// ShutdownTimeout bounds how long a cancelled session may take to
	// wind down before its connection is closed out from under it
	// (§4.7).
	ShutdownTimeout time.Duration

	// Window, when non-nil, gates when sessions may be live (§4.6). An
	// acceptor holds an accepted connection until the window opens; the
	// orchestrator logs the session out when it closes.
	Window *Window

	// TLSConfig, when non-nil, wraps the listener (acceptor) or the
	// outbound connection (initiator) in TLS.
	TLSConfig *tls.Config

	// Acceptor-only.
	ListenAddr string

	// Initiator-only.
	DialAddr    string
	DialTimeout time.Duration

	Stream StreamConfig
}

// Engine owns the listener (acceptor) or the single outbound connection
// (initiator) for one CompID pair and supervises the Orchestrator and
// StreamProcessor wired to it. A process hosting many counterparties
// runs one Engine per pair.
type Engine struct {
	cfg     EngineConfig
	store   Store
	cb      Callbacks
	metrics *metrics.Metrics
	cancel  *CancelSignal

	listener net.Listener

	activeConns sync.WaitGroup
	connCount   atomic.Int64
}

// NewEngine constructs an Engine. m may be nil (metrics.Null()).
func NewEngine(cfg EngineConfig, store Store, cb Callbacks, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		store:   store,
		cb:      cb,
		metrics: m,
		cancel:  NewCancelSignal(),
	}
}

// Stop triggers graceful shutdown: the listener (if any) stops
// accepting, every live session is asked to disconnect, and Serve/Dial
// return once everything has wound down.
func (e *Engine) Stop() {
	e.cancel.Cancel()
	if e.listener != nil {
		_ = e.listener.Close()
	}
}

// Serve runs an acceptor Engine: it listens on cfg.ListenAddr and spawns
// one session per accepted connection, returning once ctx is cancelled
// or Stop is called and every connection has wound down.
func (e *Engine) Serve(ctx context.Context) error {
	if e.cfg.Role != RoleAcceptor {
		return fmt.Errorf("Serve is only valid for an acceptor engine")
	}

	listener, err := net.Listen("tcp", e.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", e.cfg.ListenAddr, err)
	}
	if e.cfg.TLSConfig != nil {
		listener = tls.NewListener(listener, e.cfg.TLSConfig)
	}
	e.listener = listener

	logger.InfoCtx(ctx, "fix engine listening", "address", e.cfg.ListenAddr, "session", e.cfg.ID.String())

	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-e.cancel.Done():
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-e.cancel.Done():
				e.activeConns.Wait()
				return nil
			default:
				logger.WarnCtx(ctx, "accept error", "error", err)
				continue
			}
		}

		e.connCount.Add(1)
		e.activeConns.Add(1)
		go func() {
			defer e.activeConns.Done()
			defer e.connCount.Add(-1)
			e.runSession(ctx, conn)
		}()
	}
}

// Dial runs an initiator Engine: it connects to cfg.DialAddr, sends the
// opening Logon, and blocks until the session ends or Stop is called.
func (e *Engine) Dial(ctx context.Context) error {
	if e.cfg.Role != RoleInitiator {
		return fmt.Errorf("Dial is only valid for an initiator engine")
	}

	var conn net.Conn
	var err error
	netDialer := net.Dialer{Timeout: e.cfg.DialTimeout}
	if e.cfg.TLSConfig != nil {
		tlsDialer := tls.Dialer{NetDialer: &netDialer, Config: e.cfg.TLSConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", e.cfg.DialAddr)
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", e.cfg.DialAddr)
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", e.cfg.DialAddr, err)
	}

	e.runSession(ctx, conn)
	return nil
}

func (e *Engine) runSession(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	lc := &logger.LogContext{SessionKey: e.cfg.ID.String(), RemoteAddr: remote}
	ctx = logger.WithContext(ctx, lc)

	// An acceptor with a session window holds the accepted connection
	// until the window opens; the counterparty's Logon is not read until
	// then.
	if e.cfg.Role == RoleAcceptor && e.cfg.Window != nil {
		if !e.waitForWindow(ctx) {
			_ = conn.Close()
			return
		}
	}

	var sp *StreamProcessor
	orch := NewOrchestrator(Config{
		ID:                    e.cfg.ID,
		Role:                  e.cfg.Role,
		Protocol:              e.cfg.Protocol,
		Sep:                   e.cfg.Sep,
		ConvertSepForChecksum: e.cfg.ConvertSepForChecksum,
		HeartBtInt:            e.cfg.HeartBtInt,
		LogonTimeout:          e.cfg.LogonTimeout,
		TestReqTimeout:        e.cfg.TestReqTimeout,
		HeartbeatThreshold:    e.cfg.HeartbeatThreshold,
		Window:                e.cfg.Window,
	}, e.store, e.cb, e.metrics, func(raw []byte) error {
		return sp.Send(raw)
	})

	sp = NewStreamProcessor(conn, orch, e.cfg.Sep, e.cfg.ConvertSepForChecksum, e.cfg.Stream)

	if err := orch.Start(ctx); err != nil {
		logger.WarnCtx(ctx, "session start failed", "error", err)
		_ = conn.Close()
		return
	}
	defer orch.Stop()

	sessionCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-e.cancel.Done():
			// Best-effort farewell Logout (§7): sent on a fresh context
			// since the engine's own may already be cancelled, queued
			// ahead of the socket close so the write loop's drain can
			// still flush it.
			if orch.AdminState() == AdminLoggedOn {
				logoutCtx := logger.WithContext(context.Background(), lc)
				_ = orch.SendLogout(logoutCtx, "engine shutting down")
			}
			stop()
			if e.cfg.ShutdownTimeout > 0 {
				time.AfterFunc(e.cfg.ShutdownTimeout, sp.Close)
			}
		case <-sessionCtx.Done():
		}
	}()

	if err := sp.Run(sessionCtx); err != nil {
		logger.InfoCtx(ctx, "session ended", "error", err)
	}
	orch.HandleDisconnect(ctx)
}

// waitForWindow blocks until the session window opens, returning false
// if the engine is cancelled first.
func (e *Engine) waitForWindow(ctx context.Context) bool {
	now := time.Now()
	if e.cfg.Window.Contains(now) {
		return true
	}
	open := e.cfg.Window.NextOpen(now)
	logger.InfoCtx(ctx, "holding connection until session window opens", "opens_at", open)
	timer := time.NewTimer(open.Sub(now))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-e.cancel.Done():
		return false
	case <-ctx.Done():
		return false
	}
}
