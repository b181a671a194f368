package session

// AdminState is a state of the admin (session-level) finite state
// machine: logon handshake, steady-state message flow, and logout.
type AdminState int

const (
	AdminNotConnected AdminState = iota
	AdminLogonSent
	// AdminLogonReceived is an acceptor-only state: a Logon has arrived
	// but Callbacks.OnLogon has not yet decided whether to accept it
	// (§4.4 AUTHENTICATING).
	AdminLogonReceived
	AdminLoggedOn
	AdminResendRequested
	AdminPendingTimeout
	AdminLogoutSent
	AdminLogoutReceived
	// AdminRejectLogon is an acceptor-only state: Callbacks.OnLogon
	// rejected the handshake, or a pending TestRequest's Heartbeat reply
	// carried the wrong TestReqID (§4.4 REJECT_LOGON). The only way out
	// is sending the Logout that tears the connection down.
	AdminRejectLogon
	AdminDisconnected
)

func (s AdminState) String() string {
	switch s {
	case AdminNotConnected:
		return "NOT_CONNECTED"
	case AdminLogonSent:
		return "LOGON_SENT"
	case AdminLogonReceived:
		return "LOGON_RECEIVED"
	case AdminLoggedOn:
		return "LOGGED_ON"
	case AdminResendRequested:
		return "RESEND_REQUESTED"
	case AdminPendingTimeout:
		return "PENDING_TIMEOUT"
	case AdminLogoutSent:
		return "LOGOUT_SENT"
	case AdminLogoutReceived:
		return "LOGOUT_RECEIVED"
	case AdminRejectLogon:
		return "REJECT_LOGON"
	case AdminDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// AdminEvent is an input to the admin FSM: either a locally-initiated
// action or the receipt of a particular admin message type.
type AdminEvent int

const (
	EventConnect AdminEvent = iota
	EventSendLogon
	EventRecvLogon
	// EventLogonAccepted and EventLogonRejected are acceptor-only: they
	// carry Callbacks.OnLogon's verdict on a received Logon (§4.4 "return
	// LOGON_ACCEPTED or LOGON_REJECTED").
	EventLogonAccepted
	EventLogonRejected
	// EventRecvReject fires when a session-level Reject arrives while a
	// Logon handshake is still outstanding — the counterparty refused
	// the handshake without a Logout, so the session ends immediately.
	EventRecvReject
	EventRecvHeartbeat
	EventRecvTestRequest
	EventRecvResendRequest
	EventSendResendRequest
	EventResendComplete
	EventRecvSequenceReset
	EventSendLogout
	EventRecvLogout
	EventTestRequestTimeout
	// EventTestHeartbeatInvalid fires when a Heartbeat answering an
	// outstanding TestRequest carries the wrong (or no) TestReqID (§4.4
	// "VALIDATE_TEST_HEARTBEAT ... TEST_HEARTBEAT_INVALID").
	EventTestHeartbeatInvalid
	EventDisconnect
)

func (e AdminEvent) String() string {
	switch e {
	case EventConnect:
		return "CONNECT"
	case EventSendLogon:
		return "SEND_LOGON"
	case EventRecvLogon:
		return "RECV_LOGON"
	case EventLogonAccepted:
		return "LOGON_ACCEPTED"
	case EventLogonRejected:
		return "LOGON_REJECTED"
	case EventRecvReject:
		return "RECV_REJECT"
	case EventRecvHeartbeat:
		return "RECV_HEARTBEAT"
	case EventRecvTestRequest:
		return "RECV_TEST_REQUEST"
	case EventRecvResendRequest:
		return "RECV_RESEND_REQUEST"
	case EventSendResendRequest:
		return "SEND_RESEND_REQUEST"
	case EventResendComplete:
		return "RESEND_COMPLETE"
	case EventRecvSequenceReset:
		return "RECV_SEQUENCE_RESET"
	case EventSendLogout:
		return "SEND_LOGOUT"
	case EventRecvLogout:
		return "RECV_LOGOUT"
	case EventTestRequestTimeout:
		return "TEST_REQUEST_TIMEOUT"
	case EventTestHeartbeatInvalid:
		return "TEST_HEARTBEAT_INVALID"
	case EventDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

// Role distinguishes the two sides of a FIX connection. The admin FSM's
// transition tables differ in how a Logon is reached (an initiator sends
// one unprompted, an acceptor waits to receive one before replying) and
// in where an invalid test Heartbeat leads (AdminLogoutSent for an
// initiator, AdminRejectLogon for an acceptor).
type Role int

const (
	RoleInitiator Role = iota
	RoleAcceptor
)

// transition is one entry in a role's admin transition table.
type transition struct {
	from AdminState
	on   AdminEvent
	to   AdminState
}

// initiatorTable and acceptorTable are deliberately total over the
// states and events each role can reach: any (state, event) pair not
// listed is rejected by AdminFSM.Fire as an invalid transition, never
// silently ignored.
var initiatorTable = []transition{
	{AdminNotConnected, EventConnect, AdminLogonSent},
	{AdminLogonSent, EventSendLogon, AdminLogonSent},
	{AdminLogonSent, EventRecvLogon, AdminLoggedOn},
	{AdminLogonSent, EventRecvReject, AdminDisconnected},
	{AdminLoggedOn, EventRecvHeartbeat, AdminLoggedOn},
	{AdminLoggedOn, EventRecvTestRequest, AdminLoggedOn},
	{AdminLoggedOn, EventRecvResendRequest, AdminResendRequested},
	{AdminResendRequested, EventRecvResendRequest, AdminResendRequested},
	{AdminLoggedOn, EventSendResendRequest, AdminResendRequested},
	{AdminResendRequested, EventSendResendRequest, AdminResendRequested},
	{AdminResendRequested, EventRecvHeartbeat, AdminLoggedOn},
	{AdminResendRequested, EventRecvSequenceReset, AdminLoggedOn},
	{AdminResendRequested, EventResendComplete, AdminLoggedOn},
	{AdminLoggedOn, EventRecvSequenceReset, AdminLoggedOn},
	{AdminLoggedOn, EventTestRequestTimeout, AdminPendingTimeout},
	{AdminPendingTimeout, EventRecvHeartbeat, AdminLoggedOn},
	{AdminPendingTimeout, EventTestRequestTimeout, AdminLogoutSent},
	// An initiator has no REJECT_LOGON state to fall back to (§4.4's
	// abridged initiator table never mentions one), so a Heartbeat
	// answering the wrong TestReqID is treated the same as a second
	// unanswered TestRequest: go straight to logout.
	{AdminPendingTimeout, EventTestHeartbeatInvalid, AdminLogoutSent},
	{AdminLoggedOn, EventSendLogout, AdminLogoutSent},
	{AdminPendingTimeout, EventSendLogout, AdminLogoutSent},
	{AdminLogoutSent, EventRecvLogout, AdminDisconnected},
	{AdminLoggedOn, EventRecvLogout, AdminLogoutReceived},
	{AdminLogoutReceived, EventSendLogout, AdminDisconnected},
	{AdminNotConnected, EventDisconnect, AdminDisconnected},
	{AdminLogonSent, EventDisconnect, AdminDisconnected},
	{AdminLoggedOn, EventDisconnect, AdminDisconnected},
	{AdminResendRequested, EventDisconnect, AdminDisconnected},
	{AdminPendingTimeout, EventDisconnect, AdminDisconnected},
	{AdminLogoutSent, EventDisconnect, AdminDisconnected},
	{AdminLogoutReceived, EventDisconnect, AdminDisconnected},
}

var acceptorTable = []transition{
	{AdminNotConnected, EventConnect, AdminNotConnected},
	{AdminNotConnected, EventRecvLogon, AdminLogonReceived},
	{AdminLogonReceived, EventRecvReject, AdminDisconnected},
	{AdminLogonReceived, EventLogonAccepted, AdminLoggedOn},
	{AdminLogonReceived, EventLogonRejected, AdminRejectLogon},
	{AdminRejectLogon, EventSendLogout, AdminDisconnected},
	{AdminLoggedOn, EventRecvHeartbeat, AdminLoggedOn},
	{AdminLoggedOn, EventRecvTestRequest, AdminLoggedOn},
	{AdminLoggedOn, EventRecvResendRequest, AdminResendRequested},
	{AdminResendRequested, EventRecvResendRequest, AdminResendRequested},
	{AdminLoggedOn, EventSendResendRequest, AdminResendRequested},
	{AdminResendRequested, EventSendResendRequest, AdminResendRequested},
	{AdminResendRequested, EventRecvHeartbeat, AdminLoggedOn},
	{AdminResendRequested, EventRecvSequenceReset, AdminLoggedOn},
	{AdminResendRequested, EventResendComplete, AdminLoggedOn},
	{AdminLoggedOn, EventRecvSequenceReset, AdminLoggedOn},
	{AdminLoggedOn, EventTestRequestTimeout, AdminPendingTimeout},
	{AdminPendingTimeout, EventRecvHeartbeat, AdminLoggedOn},
	{AdminPendingTimeout, EventTestRequestTimeout, AdminLogoutSent},
	{AdminPendingTimeout, EventTestHeartbeatInvalid, AdminRejectLogon},
	{AdminLoggedOn, EventSendLogout, AdminLogoutSent},
	{AdminPendingTimeout, EventSendLogout, AdminLogoutSent},
	{AdminLogoutSent, EventRecvLogout, AdminDisconnected},
	{AdminLoggedOn, EventRecvLogout, AdminLogoutReceived},
	{AdminLogoutReceived, EventSendLogout, AdminDisconnected},
	{AdminNotConnected, EventDisconnect, AdminDisconnected},
	{AdminLogonReceived, EventDisconnect, AdminDisconnected},
	{AdminRejectLogon, EventDisconnect, AdminDisconnected},
	{AdminLoggedOn, EventDisconnect, AdminDisconnected},
	{AdminResendRequested, EventDisconnect, AdminDisconnected},
	{AdminPendingTimeout, EventDisconnect, AdminDisconnected},
	{AdminLogoutSent, EventDisconnect, AdminDisconnected},
	{AdminLogoutReceived, EventDisconnect, AdminDisconnected},
}

// AdminFSM drives the admin state machine for one session. It is not
// safe for concurrent use; the orchestrator serializes calls to Fire
// through the session's own event loop.
type AdminFSM struct {
	role  Role
	state AdminState
	table []transition
}

// NewAdminFSM constructs an admin FSM in its initial state for role.
func NewAdminFSM(role Role) *AdminFSM {
	table := initiatorTable
	if role == RoleAcceptor {
		table = acceptorTable
	}
	return &AdminFSM{role: role, state: AdminNotConnected, table: table}
}

// State returns the FSM's current state.
func (f *AdminFSM) State() AdminState { return f.state }

// Role returns which side of the connection f drives.
func (f *AdminFSM) Role() Role { return f.role }

// Fire applies event to the FSM. On success it updates State() and
// returns nil; on an event the current state does not accept, it
// returns a SessionError (ErrInvalidTransition) and leaves State()
// unchanged.
func (f *AdminFSM) Fire(event AdminEvent) error {
	for _, t := range f.table {
		if t.from == f.state && t.on == event {
			f.state = t.to
			return nil
		}
	}
	return NewInvalidTransitionError(f.state.String(), event.String())
}

// CanFire reports whether event is accepted in the FSM's current state,
// without applying it.
func (f *AdminFSM) CanFire(event AdminEvent) bool {
	for _, t := range f.table {
		if t.from == f.state && t.on == event {
			return true
		}
	}
	return false
}
