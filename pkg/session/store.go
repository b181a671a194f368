package session

import (
	"context"
	"fmt"
)

// ID identifies a session by the CompID pair that names it on the wire.
// The same pair is used whichever side initiates the TCP connection.
type ID struct {
	SenderCompID string
	TargetCompID string
}

func (id ID) String() string {
	return fmt.Sprintf("%s->%s", id.SenderCompID, id.TargetCompID)
}

func (id ID) key() string {
	return id.SenderCompID + "\x00" + id.TargetCompID
}

// SequenceState is the durable sequence-number bookkeeping for one
// session. NextSent is the sequence number to stamp on the next outbound
// message; NextRecv is the sequence number expected on the next inbound
// message.
type SequenceState struct {
	NextSent int64
	NextRecv int64
}

// Store is the pluggable, durable persistence contract every session
// orchestrator depends on: sequence-number bookkeeping per (Sender,
// Target) pair, plus a sent-message journal kept for audit and
// diagnostics (resend requests are always answered with a gap fill, not
// a replay from this journal). Implementations must be safe for
// concurrent use by multiple sessions
// (a process may host many CompID pairs at once) but need not be safe
// for concurrent use by the *same* session, since a session serializes
// its own admin-FSM events.
type Store interface {
	// LoadSequenceState returns the current sequence state for id,
	// creating it at {1, 1} if this is the first time id has been seen.
	LoadSequenceState(ctx context.Context, id ID) (SequenceState, error)

	// SaveSequenceState persists st for id.
	SaveSequenceState(ctx context.Context, id ID, st SequenceState) error

	// ResetSequenceState resets id back to {1, 1}, discarding any stored
	// message log for it. The Orchestrator never calls it; an inbound
	// SequenceReset only moves the expected inbound number forward.
	ResetSequenceState(ctx context.Context, id ID) error

	// SaveSentMessage records the raw bytes of an outbound message under
	// its own sequence number, for audit and diagnostics; resend requests
	// are answered with a gap fill, never replayed from this journal.
	SaveSentMessage(ctx context.Context, id ID, seqNum int64, raw []byte) error

	// SaveReceivedMessage appends the raw bytes of an inbound frame to
	// id's receive journal. The journal is append-only and keyed by
	// arrival order, not sequence number: it is written before the frame
	// is decoded, so even frames that fail validation are recorded.
	SaveReceivedMessage(ctx context.Context, id ID, raw []byte) error

	// LoadSentMessages returns every stored outbound message in
	// [fromSeqNum, toSeqNum] (inclusive), in ascending sequence order.
	// toSeqNum of 0 means "through the highest stored sequence number".
	LoadSentMessages(ctx context.Context, id ID, fromSeqNum, toSeqNum int64) ([][]byte, error)
}
