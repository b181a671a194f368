package session

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/quorumfx/fixengine/internal/logger"
	"github.com/quorumfx/fixengine/pkg/wire"
)

// StreamConfig tunes the StreamProcessor's I/O behavior.
type StreamConfig struct {
	// IdleTimeout, if nonzero, resets the connection's read deadline
	// after each successful read; a counterparty that goes fully silent
	// (no bytes at all, not even a Heartbeat) is disconnected rather than
	// left to the session-level TestRequest timer alone.
	IdleTimeout time.Duration

	// WriteQueueDepth bounds how many outbound frames may be buffered
	// before Send blocks. The orchestrator calls Send synchronously from
	// its own event handling, so a full queue means the network is not
	// keeping up.
	WriteQueueDepth int
}

// StreamProcessor supervises one connection's read and write loops: it
// feeds inbound bytes through a wire.ReadBuffer and dispatches complete
// frames to the Orchestrator, and serializes outbound frames from a
// queue onto the single underlying net.Conn, mirroring the
// request/reply connection supervision used elsewhere for this engine's
// transport layer. Graceful shutdown drains outstanding writes before
// the socket closes.
type StreamProcessor struct {
	conn   net.Conn
	orch   *Orchestrator
	config StreamConfig

	readBuf *wire.ReadBuffer

	writeQueue chan []byte
	wg         sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// NewStreamProcessor wraps conn with read/write supervision for orch.
func NewStreamProcessor(conn net.Conn, orch *Orchestrator, sep byte, convertSepForChecksum bool, config StreamConfig) *StreamProcessor {
	if config.WriteQueueDepth <= 0 {
		config.WriteQueueDepth = 64
	}
	return &StreamProcessor{
		conn:       conn,
		orch:       orch,
		config:     config,
		readBuf:    wire.NewReadBuffer(sep, convertSepForChecksum),
		writeQueue: make(chan []byte, config.WriteQueueDepth),
		closed:     make(chan struct{}),
	}
}

// Send enqueues raw for writing. It is the function an Orchestrator's
// send callback should call.
func (sp *StreamProcessor) Send(raw []byte) error {
	select {
	case <-sp.closed:
		return NewIOError("connection closed")
	default:
	}
	select {
	case sp.writeQueue <- raw:
		return nil
	case <-sp.closed:
		return NewIOError("connection closed")
	}
}

// Run drives both the read and write loops until ctx is cancelled, the
// connection errors, or Close is called. It blocks until both loops have
// exited.
func (sp *StreamProcessor) Run(ctx context.Context) error {
	sp.wg.Add(1)
	var writeErr error
	go func() {
		defer sp.wg.Done()
		writeErr = sp.writeLoop(ctx)
	}()

	readErr := sp.readLoop(ctx)

	sp.Close()
	sp.wg.Wait()

	if readErr != nil {
		return readErr
	}
	return writeErr
}

// Close stops accepting new writes and closes the underlying
// connection. Safe to call multiple times and from multiple goroutines.
func (sp *StreamProcessor) Close() {
	sp.closeOnce.Do(func() {
		close(sp.closed)
		_ = sp.conn.Close()
	})
}

func (sp *StreamProcessor) readLoop(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sp.closed:
			return nil
		default:
		}

		if sp.config.IdleTimeout > 0 {
			if err := sp.conn.SetReadDeadline(time.Now().Add(sp.config.IdleTimeout)); err != nil {
				logger.WarnCtx(ctx, "failed to set read deadline", "error", err)
			}
		}

		n, err := sp.conn.Read(buf)
		if n > 0 {
			sp.readBuf.Receive(buf[:n])
			if drainErr := sp.drainFrames(ctx); drainErr != nil {
				return drainErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				sp.readBuf.Close()
				_ = sp.drainFrames(ctx)
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return NewIOError("idle timeout")
			}
			return NewIOError(err.Error())
		}
	}
}

func (sp *StreamProcessor) drainFrames(ctx context.Context) error {
	for {
		event := sp.readBuf.Next()
		switch ev := event.(type) {
		case wire.DataReady:
			if err := sp.orch.HandleInbound(ctx, ev.Frame); err != nil {
				logger.WarnCtx(ctx, "rejecting inbound frame", "error", err)
			}
		case wire.NeedsMoreData:
			if sp.readBuf.State() == wire.StateProtocolError {
				return NewIOError(sp.readBuf.Err().Error())
			}
			return nil
		case wire.EndOfFile:
			return nil
		}
	}
}

func (sp *StreamProcessor) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sp.closed:
			// Drain whatever is already queued before giving up, so a
			// graceful Logout sent just before shutdown still reaches
			// the wire.
			for {
				select {
				case raw := <-sp.writeQueue:
					if _, err := sp.conn.Write(raw); err != nil {
						return NewIOError(err.Error())
					}
				default:
					return nil
				}
			}
		case raw := <-sp.writeQueue:
			if _, err := sp.conn.Write(raw); err != nil {
				return NewIOError(err.Error())
			}
		}
	}
}
