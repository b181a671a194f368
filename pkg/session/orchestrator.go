package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quorumfx/fixengine/internal/logger"
	"github.com/quorumfx/fixengine/internal/metrics"
	"github.com/quorumfx/fixengine/pkg/codec"
	"github.com/quorumfx/fixengine/pkg/protocol"
)

// Config is the per-session configuration an Orchestrator is built
// from: the two identifying CompIDs, which side of the handshake this
// process plays, and the timing parameters that drive the heartbeat and
// logon-window timers.
type Config struct {
	ID       ID
	Role     Role
	Protocol *protocol.Protocol

	// Sep is the wire field separator, SOH (0x01) unless a diagnostic
	// substitute is configured.
	Sep byte

	// ConvertSepForChecksum controls checksum computation when Sep is
	// not SOH (§9 Open Questions): true recomputes as if Sep were SOH.
	ConvertSepForChecksum bool

	HeartBtInt     time.Duration
	LogonTimeout   time.Duration
	TestReqTimeout time.Duration

	// HeartbeatThreshold is the grace window added on top of HeartBtInt
	// before a quiet counterparty is declared unresponsive (§4.5, §5).
	HeartbeatThreshold time.Duration

	// Window, when non-nil, bounds when the session may be live (§4.6):
	// once logged on, the orchestrator sends a Logout when the window
	// closes. Waiting for the window to open before accepting a logon is
	// the Engine's job, since it owns the pre-session connection.
	Window *Window
}

// Callbacks lets the embedding application observe and drive a session
// without reaching into its internals. The five methods mirror §6's
// "Application callback surface" (on_logon/on_logout/on_heartbeat/
// on_admin_message/on_application_message) exactly; every one is
// optional and skipped when nil.
type Callbacks struct {
	// OnLogon is invoked when a Logon is received: for an acceptor before
	// the admin FSM settles into LOGGED_ON, for an initiator after its
	// FSM has already reached it. For an acceptor, a non-nil return rejects
	// the handshake (§4.4 "delegate to application logon callback;
	// return LOGON_ACCEPTED or LOGON_REJECTED", §6 "may raise LoginError
	// to reject"): the session fires LOGON_REJECTED and answers with a
	// Logout instead of a Logon acknowledgement. For an initiator the
	// handshake always proceeds regardless of the returned error, since
	// §6 only documents on_logon as acceptor-facing validation; an
	// initiator's OnLogon is purely informational.
	OnLogon func(ctx context.Context, msg codec.Message, eng *Orchestrator) error

	// OnLogout is invoked when a Logout is received.
	OnLogout func(ctx context.Context, msg codec.Message, eng *Orchestrator)

	// OnHeartbeat is invoked for every Heartbeat accepted as valid (a
	// Heartbeat answering an outstanding TestRequest with a mismatched
	// TestReqID never reaches this callback; see EventTestHeartbeatInvalid).
	OnHeartbeat func(ctx context.Context, msg codec.Message, eng *Orchestrator)

	// OnAdminMessage is invoked for every admin-category message, in
	// addition to whichever of OnLogon/OnLogout/OnHeartbeat also fires
	// for it (§6 "on_admin_message ... informational").
	OnAdminMessage func(ctx context.Context, msg codec.Message, md *protocol.MessageDef, eng *Orchestrator)

	// OnAppMessage is invoked for every decoded application-category
	// message; inbound sequence numbers are not checked before dispatch.
	OnAppMessage func(ctx context.Context, msg codec.Message, md *protocol.MessageDef, eng *Orchestrator)

	// OnStateChange is invoked whenever AdminFSM transitions. Not part
	// of §6's callback surface; an extra hook for logging/metrics.
	OnStateChange func(from, to AdminState)

	// OnLogonRejected is invoked whenever a Logon handshake fails,
	// whether from an FSM-level error (bad sequencing) or an OnLogon
	// rejection (bad application-level validation).
	OnLogonRejected func(reason string)
}

// Orchestrator drives one FIX session end to end: admin/transport state,
// sequence-number bookkeeping against a Store, heartbeat timers, and the
// encode/decode of every message that crosses the wire. It does not own
// the network connection; the send callback and HandleInbound exchange already-framed
// bytes with whatever transport the caller (see pkg/session stream.go)
// is running.
type Orchestrator struct {
	cfg     Config
	store   Store
	cb      Callbacks
	metrics *metrics.Metrics

	admin     *AdminFSM
	transport *TransportFSM

	recvTimer  *heartbeatTimer // drives transport TIMEOUT_RECEIVED ticks
	sendTimer  *heartbeatTimer // fires our own obligation to send a Heartbeat
	logonTimer *time.Timer     // fires once if the logon handshake doesn't complete in time

	// windowTimer fires when the configured session window closes.
	windowTimer *time.Timer

	// pendingTestReqID is the TestReqID of an outstanding TestRequest
	// this side sent, awaiting the matching Heartbeat (§4.4
	// VALIDATE_TEST_HEARTBEAT). Empty when no TestRequest is pending.
	// testReqSentAt is when it went out, for deciding when the silence
	// has lasted long enough to escalate past a single probe.
	pendingTestReqID string
	testReqSentAt    time.Time

	send func(raw []byte) error
}

// NewOrchestrator constructs an Orchestrator. send is how the
// orchestrator hands off already-framed outbound bytes to the
// transport; it is expected to be non-blocking-ish (the stream
// processor in stream.go provides a queued implementation). m may be
// nil (metrics.Null()), in which case instrumentation is a no-op.
func NewOrchestrator(cfg Config, store Store, cb Callbacks, m *metrics.Metrics, send func(raw []byte) error) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		store:     store,
		cb:        cb,
		metrics:   m,
		admin:     NewAdminFSM(cfg.Role),
		transport: NewTransportFSM(),
		send:      send,
	}
	return o
}

// AdminState returns the session's current admin state.
func (o *Orchestrator) AdminState() AdminState { return o.admin.State() }

// TransportState returns the session's current transport state.
func (o *Orchestrator) TransportState() TransportState { return o.transport.State() }

func (o *Orchestrator) fireAdmin(event AdminEvent) error {
	from := o.admin.State()
	if err := o.admin.Fire(event); err != nil {
		return err
	}
	if o.admin.State() != from {
		o.metrics.SetAdminState(o.cfg.ID.String(), from.String(), o.admin.State().String())
		if o.cb.OnStateChange != nil {
			o.cb.OnStateChange(from, o.admin.State())
		}
	}
	return nil
}

// Start transitions the transport FSM to CONNECTED and, for
// an initiator, sends the opening Logon. It also arms the heartbeat
// timers.
func (o *Orchestrator) Start(ctx context.Context) error {
	// CONNECTION_RECEIVED (§4.5): DISCONNECTED -> CONNECTED, whichever
	// role opened the socket; its handler fires AdminEvent.CONNECTED.
	if err := o.transport.Fire(TransportEventConnectionReceived); err != nil {
		return err
	}

	if err := o.fireAdmin(EventConnect); err != nil {
		return err
	}

	o.recvTimer = newHeartbeatTimer(o.cfg.TestReqTimeout, func() {
		o.handleTransportTimeout(ctx)
	})
	o.sendTimer = newHeartbeatTimer(o.cfg.HeartBtInt, func() {
		_ = o.sendHeartbeat(ctx, "")
	})
	o.logonTimer = time.AfterFunc(o.cfg.LogonTimeout, func() {
		if o.admin.State() != AdminLoggedOn {
			_ = o.fireAdmin(EventDisconnect)
		}
	})
	if o.cfg.Window != nil {
		now := time.Now()
		o.windowTimer = time.AfterFunc(o.cfg.Window.NextClose(now).Sub(now), func() {
			if o.admin.State() == AdminLoggedOn {
				_ = o.SendLogout(ctx, "session window closed")
			}
		})
	}

	if o.cfg.Role == RoleInitiator {
		return o.sendLogon(ctx)
	}
	return nil
}

// Stop halts the session's timers. It does not itself send a Logout;
// callers wanting a clean logout should call SendLogout first.
func (o *Orchestrator) Stop() {
	if o.recvTimer != nil {
		o.recvTimer.Stop()
	}
	if o.sendTimer != nil {
		o.sendTimer.Stop()
	}
	if o.logonTimer != nil {
		o.logonTimer.Stop()
	}
	if o.windowTimer != nil {
		o.windowTimer.Stop()
	}
}

// nextOutgoing stamps and encodes one outbound message, advances
// NextSent, and persists it to the store under its new sequence number.
func (o *Orchestrator) nextOutgoing(ctx context.Context, msgName string, fields codec.Message, possDup bool) ([]byte, error) {
	md, ok := o.cfg.Protocol.MessageByName(msgName)
	if !ok {
		return nil, fmt.Errorf("unknown message %s", msgName)
	}

	st, err := o.store.LoadSequenceState(ctx, o.cfg.ID)
	if err != nil {
		return nil, NewStoreError(err.Error())
	}

	out := codec.Message{}
	for k, v := range fields {
		out[k] = v
	}
	out["MsgType"] = codec.NewString(md.MsgType)
	out["SenderCompID"] = codec.NewString(o.cfg.ID.SenderCompID)
	out["TargetCompID"] = codec.NewString(o.cfg.ID.TargetCompID)
	out["MsgSeqNum"] = codec.NewInt(st.NextSent)
	out["SendingTime"] = codec.NewDateTime(time.Now().UTC())
	if possDup {
		out["PossDupFlag"] = codec.NewBool(true)
	}

	raw, err := codec.EncodeMessage(o.cfg.Protocol, md, out, codec.EncodeOptions{
		Sep:                   o.cfg.Sep,
		RegenerateIntegrity:   true,
		ConvertSepForChecksum: o.cfg.ConvertSepForChecksum,
	})
	if err != nil {
		return nil, err
	}

	st.NextSent++
	if err := o.store.SaveSequenceState(ctx, o.cfg.ID, st); err != nil {
		return nil, NewStoreError(err.Error())
	}
	if !possDup {
		if err := o.store.SaveSentMessage(ctx, o.cfg.ID, st.NextSent-1, raw); err != nil {
			return nil, NewStoreError(err.Error())
		}
	}

	o.metrics.RecordSent(o.cfg.ID.String(), md.Name)
	o.metrics.SetNextSentSeqNum(o.cfg.ID.String(), st.NextSent)

	if err := o.send(raw); err != nil {
		return raw, NewIOError(err.Error())
	}
	if o.sendTimer != nil {
		o.sendTimer.Reset()
	}
	return raw, nil
}

// sendLogon emits the session's opening Logon message.
func (o *Orchestrator) sendLogon(ctx context.Context) error {
	fields := codec.Message{
		"EncryptMethod": codec.NewInt(0),
		"HeartBtInt":    codec.NewInt(int64(o.cfg.HeartBtInt / time.Second)),
	}
	_, err := o.nextOutgoing(ctx, "Logon", fields, false)
	if err != nil {
		return err
	}
	return o.fireAdmin(EventSendLogon)
}

// sendLogonAck emits the acceptor's Logon acknowledgement once
// Callbacks.OnLogon has accepted the handshake (§4.4 "On AUTHENTICATED +
// LOGON_ACCEPTED (acceptor): send LOGON acknowledgement"). LOGON_ACCEPTED
// already moved the admin FSM to LOGGED_ON, so unlike sendLogon this is
// a message send with no admin FSM event of its own.
func (o *Orchestrator) sendLogonAck(ctx context.Context) error {
	fields := codec.Message{
		"EncryptMethod": codec.NewInt(0),
		"HeartBtInt":    codec.NewInt(int64(o.cfg.HeartBtInt / time.Second)),
	}
	_, err := o.nextOutgoing(ctx, "Logon", fields, false)
	return err
}

// SendLogout emits a Logout message, carrying an optional human-readable
// Text.
func (o *Orchestrator) SendLogout(ctx context.Context, text string) error {
	fields := codec.Message{}
	if text != "" {
		fields["Text"] = codec.NewString(text)
	}
	if _, err := o.nextOutgoing(ctx, "Logout", fields, false); err != nil {
		return err
	}
	return o.fireAdmin(EventSendLogout)
}

func (o *Orchestrator) sendHeartbeat(ctx context.Context, testReqID string) error {
	fields := codec.Message{}
	if testReqID != "" {
		fields["TestReqID"] = codec.NewString(testReqID)
	}
	_, err := o.nextOutgoing(ctx, "Heartbeat", fields, false)
	return err
}

func (o *Orchestrator) sendTestRequest(ctx context.Context) error {
	testReqID := uuid.NewString()
	fields := codec.Message{"TestReqID": codec.NewString(testReqID)}
	_, err := o.nextOutgoing(ctx, "TestRequest", fields, false)
	if err != nil {
		return err
	}
	o.pendingTestReqID = testReqID
	o.testReqSentAt = time.Now()
	return nil
}

// handleTransportTimeout is the transport FSM's TIMEOUT_RECEIVED handler
// (§4.5): it fires the quiescent-tick transition, and, only once the
// counterparty's silence has actually exceeded heartbeat_timeout plus
// heartbeat_threshold, escalates to the admin FSM and sends a
// TestRequest. It always returns the transport FSM to CONNECTED via
// TIMEOUT_HANDLED before returning.
func (o *Orchestrator) handleTransportTimeout(ctx context.Context) {
	if err := o.transport.Fire(TransportEventTimeoutReceived); err != nil {
		logger.WarnCtx(ctx, "transport timeout event rejected", "error", err)
		return
	}

	switch o.admin.State() {
	case AdminLoggedOn:
		idle := o.recvTimer.Idle() - o.cfg.HeartBtInt
		if idle > o.cfg.HeartbeatThreshold {
			o.metrics.RecordHeartbeatMiss(o.cfg.ID.String())
			_ = o.fireAdmin(EventTestRequestTimeout)
			_ = o.sendTestRequest(ctx)
		}

	case AdminPendingTimeout:
		// The TestRequest itself has gone unanswered for a further
		// heartbeat interval plus threshold (§5): an initiator probes
		// again, an acceptor gives up and logs the counterparty out.
		if time.Since(o.testReqSentAt) > o.cfg.HeartBtInt+o.cfg.HeartbeatThreshold {
			o.metrics.RecordHeartbeatMiss(o.cfg.ID.String())
			if o.cfg.Role == RoleInitiator {
				_ = o.sendTestRequest(ctx)
			} else {
				_ = o.SendLogout(ctx, "test request unanswered")
			}
		}
	}

	_ = o.transport.Fire(TransportEventTimeoutHandled)
}

// HandleDisconnect tears the session down in response to the underlying
// connection closing (EOF, I/O error, or cancellation): DISCONNECT_
// RECEIVED (§4.5 "no outbound; session ends") on the transport FSM, and
// admin EventDisconnect if the admin FSM has not already reached
// DISCONNECTED some other way (e.g. a logon-timeout). Safe to call more
// than once.
func (o *Orchestrator) HandleDisconnect(ctx context.Context) {
	if o.transport.CanFire(TransportEventDisconnectReceived) {
		_ = o.transport.Fire(TransportEventDisconnectReceived)
	}
	if o.admin.State() != AdminDisconnected {
		_ = o.fireAdmin(EventDisconnect)
	}
}

// SendResendRequest asks the counterparty to replay messages
// [fromSeqNum, toSeqNum]; toSeqNum of 0 means "through whatever you next
// send". The engine never calls this on its own — noticing a gap and
// deciding to recover it is application policy (§4.6).
func (o *Orchestrator) SendResendRequest(ctx context.Context, fromSeqNum, toSeqNum int64) error {
	fields := codec.Message{
		"BeginSeqNo": codec.NewInt(fromSeqNum),
		"EndSeqNo":   codec.NewInt(toSeqNum),
	}
	if _, err := o.nextOutgoing(ctx, "ResendRequest", fields, false); err != nil {
		return err
	}
	if o.admin.CanFire(EventSendResendRequest) {
		return o.fireAdmin(EventSendResendRequest)
	}
	return nil
}

// SendApp sends an application-category message, e.g. NewOrderSingle.
func (o *Orchestrator) SendApp(ctx context.Context, msgName string, fields codec.Message) ([]byte, error) {
	md, ok := o.cfg.Protocol.MessageByName(msgName)
	if !ok {
		return nil, fmt.Errorf("unknown message %s", msgName)
	}
	if md.Category != protocol.CategoryApp {
		return nil, fmt.Errorf("%s is not an application message", msgName)
	}
	return o.nextOutgoing(ctx, msgName, fields, false)
}

// HandleInbound decodes raw, advances the admin FSM or invokes
// Callbacks.OnAppMessage, then records the wire's MsgSeqNum as the
// incoming sequence number. It is the transport FSM's FIX_RECEIVED/
// FIX_HANDLED pair (§4.5): the frame is classified and dispatched while
// the transport sits in the FIX state, then returns to CONNECTED
// regardless of whether dispatch succeeded.
func (o *Orchestrator) HandleInbound(ctx context.Context, raw []byte) error {
	// The raw frame is journaled before decoding (§4.5): even a frame
	// that fails validation is recorded for later diagnosis.
	if err := o.store.SaveReceivedMessage(ctx, o.cfg.ID, raw); err != nil {
		return NewStoreError(err.Error())
	}

	fields, md, err := codec.DecodeMessage(o.cfg.Protocol, raw, codec.DecodeOptions{
		Sep:                   o.cfg.Sep,
		Strict:                true,
		Validate:              true,
		ConvertSepForChecksum: o.cfg.ConvertSepForChecksum,
	})
	if err != nil {
		return err
	}

	if err := o.transport.Fire(TransportEventFIXReceived); err != nil {
		return err
	}
	dispatchErr := o.dispatchInbound(ctx, fields, md)
	if handledErr := o.transport.Fire(TransportEventFIXHandled); handledErr != nil && dispatchErr == nil {
		dispatchErr = handledErr
	}
	return dispatchErr
}

// dispatchInbound is the body of FIX_RECEIVED's handler: route the
// decoded message to the admin FSM or the application callback, then set
// the incoming sequence number from the wire's MsgSeqNum (§4.5).
// Dispatch is unconditional — the engine performs no automatic gap
// detection or duplicate rejection; recovering from a gap is the
// application's call, made through SendResendRequest (§4.6).
func (o *Orchestrator) dispatchInbound(ctx context.Context, fields codec.Message, md *protocol.MessageDef) error {
	if o.recvTimer != nil {
		o.recvTimer.Reset()
	}

	seqVal, ok := fields["MsgSeqNum"]
	if !ok {
		return NewSequenceError("inbound message missing MsgSeqNum")
	}
	seqNum, _ := seqVal.Int()

	o.metrics.RecordReceived(o.cfg.ID.String(), md.Name)
	logger.DebugCtx(ctx, "inbound message", "msg", md.Name, "seq", seqNum)

	// SequenceReset owns the incoming sequence number outright (§4.4
	// "SEQUENCE_RESET_RECEIVED: set incoming seqnum to NewSeqNo"): the
	// counter is realigned to the message's NewSeqNo, not derived from
	// its own MsgSeqNum, so it skips the set-from-wire below.
	if md.MsgType == "4" {
		return o.handleSequenceReset(ctx, fields)
	}

	var dispatchErr error
	if md.Category == protocol.CategoryApp {
		if o.cb.OnAppMessage != nil {
			o.cb.OnAppMessage(ctx, fields, md, o)
		}
	} else {
		dispatchErr = o.handleAdminMessage(ctx, md, fields)
	}

	st, err := o.store.LoadSequenceState(ctx, o.cfg.ID)
	if err != nil {
		return NewStoreError(err.Error())
	}
	st.NextRecv = seqNum + 1
	if err := o.store.SaveSequenceState(ctx, o.cfg.ID, st); err != nil {
		return NewStoreError(err.Error())
	}
	o.metrics.SetNextRecvSeqNum(o.cfg.ID.String(), st.NextRecv)

	return dispatchErr
}

func (o *Orchestrator) handleAdminMessage(ctx context.Context, md *protocol.MessageDef, fields codec.Message) error {
	if o.cb.OnAdminMessage != nil {
		o.cb.OnAdminMessage(ctx, fields, md, o)
	}

	switch md.MsgType {
	case "A": // Logon
		return o.handleLogon(ctx, fields)

	case "0": // Heartbeat
		return o.handleHeartbeat(ctx, fields)

	case "1": // TestRequest
		if err := o.fireAdmin(EventRecvTestRequest); err != nil {
			return err
		}
		testReqID := ""
		if v, ok := fields["TestReqID"]; ok {
			testReqID, _ = v.Str()
		}
		return o.sendHeartbeat(ctx, testReqID)

	case "2": // ResendRequest
		return o.handleResendRequest(ctx)

	case "3": // Reject
		// A Reject arriving in place of the expected Logon
		// acknowledgement ends the session on the spot (§4.4
		// REJECT_RECEIVED); once logged on it is informational only.
		if o.admin.CanFire(EventRecvReject) {
			return o.fireAdmin(EventRecvReject)
		}
		return nil

	case "5": // Logout
		if o.cb.OnLogout != nil {
			o.cb.OnLogout(ctx, fields, o)
		}
		if o.admin.CanFire(EventRecvLogout) {
			if err := o.fireAdmin(EventRecvLogout); err != nil {
				return err
			}
			return o.SendLogout(ctx, "")
		}
		return o.fireAdmin(EventRecvLogout)

	default:
		return fmt.Errorf("unhandled admin message type %s", md.MsgType)
	}
}

// handleLogon processes an inbound Logon (§4.4, §6 "on_logon"). For an
// acceptor this is the counterparty's opening handshake message:
// Callbacks.OnLogon decides whether to accept it. For an initiator it is
// the acceptor's acknowledgement of the Logon this side already sent,
// which always completes the handshake.
func (o *Orchestrator) handleLogon(ctx context.Context, fields codec.Message) error {
	if err := o.fireAdmin(EventRecvLogon); err != nil {
		if o.cb.OnLogonRejected != nil {
			o.cb.OnLogonRejected(err.Error())
		}
		return err
	}

	if o.cfg.Role == RoleInitiator {
		if o.cb.OnLogon != nil {
			_ = o.cb.OnLogon(ctx, fields, o)
		}
		return nil
	}

	var logonErr error
	if o.cb.OnLogon != nil {
		logonErr = o.cb.OnLogon(ctx, fields, o)
	}
	if logonErr != nil {
		var sessErr *SessionError
		if !errors.As(logonErr, &sessErr) {
			sessErr = NewLogonError(logonErr.Error())
		}
		if err := o.fireAdmin(EventLogonRejected); err != nil {
			return err
		}
		if o.cb.OnLogonRejected != nil {
			o.cb.OnLogonRejected(sessErr.Error())
		}
		return o.SendLogout(ctx, sessErr.Error())
	}

	if err := o.fireAdmin(EventLogonAccepted); err != nil {
		return err
	}
	return o.sendLogonAck(ctx)
}

// handleHeartbeat processes an inbound Heartbeat (§4.4). When one was
// sent to answer an outstanding TestRequest, its TestReqID must match
// the token this side generated (VALIDATE_TEST_HEARTBEAT); a mismatch or
// missing TestReqID is TEST_HEARTBEAT_INVALID and tears the session down
// with a Logout rather than silently clearing the pending timeout.
func (o *Orchestrator) handleHeartbeat(ctx context.Context, fields codec.Message) error {
	testReqID := ""
	if v, ok := fields["TestReqID"]; ok {
		testReqID, _ = v.Str()
	}

	if o.pendingTestReqID != "" {
		expected := o.pendingTestReqID
		o.pendingTestReqID = ""
		if testReqID != expected {
			if err := o.fireAdmin(EventTestHeartbeatInvalid); err != nil {
				return err
			}
			return o.SendLogout(ctx, "TestReqID mismatch on heartbeat response")
		}
	}

	if err := o.fireAdmin(EventRecvHeartbeat); err != nil {
		return err
	}
	if o.cb.OnHeartbeat != nil {
		o.cb.OnHeartbeat(ctx, fields, o)
	}
	return nil
}

// handleResendRequest services an inbound ResendRequest. The engine gap-
// fills only: it never replays the sent-message log against a resend
// request (§1 Non-goals, §9 Open Questions) even though the store keeps
// one for other diagnostic uses — it answers with a single SequenceReset
// pointing the counterparty past everything this side has sent,
// including the SequenceReset itself (§4.4: "respond with SEQUENCE_RESET
// to outgoing_seqnum + 2").
func (o *Orchestrator) handleResendRequest(ctx context.Context) error {
	if err := o.fireAdmin(EventRecvResendRequest); err != nil {
		return err
	}

	st, err := o.store.LoadSequenceState(ctx, o.cfg.ID)
	if err != nil {
		return NewStoreError(err.Error())
	}
	// The SequenceReset goes out with MsgSeqNum st.NextSent, so the next
	// real message after it carries st.NextSent + 1.
	if err := o.sendSequenceReset(ctx, st.NextSent+1, false); err != nil {
		return err
	}
	return o.fireAdmin(EventResendComplete)
}

func (o *Orchestrator) sendSequenceReset(ctx context.Context, newSeqNo int64, gapFill bool) error {
	fields := codec.Message{
		"NewSeqNo":    codec.NewInt(newSeqNo),
		"GapFillFlag": codec.NewBool(gapFill),
	}
	_, err := o.nextOutgoing(ctx, "SequenceReset", fields, false)
	return err
}

func (o *Orchestrator) handleSequenceReset(ctx context.Context, fields codec.Message) error {
	newSeqVal, ok := fields["NewSeqNo"]
	if !ok {
		return NewSequenceError("SequenceReset missing NewSeqNo")
	}
	newSeq, _ := newSeqVal.Int()

	st, err := o.store.LoadSequenceState(ctx, o.cfg.ID)
	if err != nil {
		return NewStoreError(err.Error())
	}
	if newSeq < st.NextRecv {
		return NewSequenceError("SequenceReset.NewSeqNo decreases the sequence number")
	}
	st.NextRecv = newSeq
	if err := o.store.SaveSequenceState(ctx, o.cfg.ID, st); err != nil {
		return NewStoreError(err.Error())
	}
	o.metrics.SetNextRecvSeqNum(o.cfg.ID.String(), st.NextRecv)
	return o.fireAdmin(EventRecvSequenceReset)
}
