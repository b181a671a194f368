package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumfx/fixengine/pkg/protocol"
)

// TestStreamProcessor_LogonHandshakeOverPipe drives a full logon
// handshake between two real StreamProcessors joined by a net.Pipe: raw
// bytes through the read buffer, the codec, and both admin FSMs, with no
// test shortcuts between the orchestrators.
func TestStreamProcessor_LogonHandshakeOverPipe(t *testing.T) {
	proto, err := protocol.Bundled()
	require.NoError(t, err)

	connInit, connAcc := net.Pipe()

	mk := func(role Role, id ID, conn net.Conn) (*Orchestrator, *StreamProcessor) {
		var sp *StreamProcessor
		orch := NewOrchestrator(Config{
			ID:                    id,
			Role:                  role,
			Protocol:              proto,
			Sep:                   0x01,
			ConvertSepForChecksum: true,
			HeartBtInt:            time.Hour,
			LogonTimeout:          time.Hour,
			TestReqTimeout:        time.Hour,
		}, NewMemoryStore(), Callbacks{}, nil, func(raw []byte) error {
			return sp.Send(raw)
		})
		sp = NewStreamProcessor(conn, orch, 0x01, true, StreamConfig{})
		return orch, sp
	}

	initOrch, initSP := mk(RoleInitiator, ID{SenderCompID: "INITIATOR", TargetCompID: "ACCEPTOR"}, connInit)
	accOrch, accSP := mk(RoleAcceptor, ID{SenderCompID: "ACCEPTOR", TargetCompID: "INITIATOR"}, connAcc)

	ctx := context.Background()

	// Start the orchestrators before the I/O loops: the initiator's
	// opening Logon just sits in its write queue until Run drains it.
	require.NoError(t, accOrch.Start(ctx))
	require.NoError(t, initOrch.Start(ctx))
	defer initOrch.Stop()
	defer accOrch.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = accSP.Run(ctx) }()
	go func() { defer wg.Done(); _ = initSP.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if initOrch.AdminState() == AdminLoggedOn && accOrch.AdminState() == AdminLoggedOn {
			break
		}
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, AdminLoggedOn, initOrch.AdminState())
	assert.Equal(t, AdminLoggedOn, accOrch.AdminState())

	initSP.Close()
	accSP.Close()
	wg.Wait()

	// Both sides observed the disconnect path on teardown.
	initOrch.HandleDisconnect(ctx)
	accOrch.HandleDisconnect(ctx)
	assert.Equal(t, AdminDisconnected, initOrch.AdminState())
	assert.Equal(t, AdminDisconnected, accOrch.AdminState())
}
