package session

// TransportState is a state of the transport FSM: the thin layer
// mediating between the stream processor and the admin FSM (§4.5). It
// classifies raw connection/frame/timer events and loops through FIX or
// TIMEOUT on its way back to CONNECTED, so the admin FSM only ever sees
// typed admin events, never raw bytes or timer pops.
type TransportState int

const (
	TransportDisconnected TransportState = iota
	TransportConnected
	TransportFIX
	TransportTimeout
)

func (s TransportState) String() string {
	switch s {
	case TransportDisconnected:
		return "DISCONNECTED"
	case TransportConnected:
		return "CONNECTED"
	case TransportFIX:
		return "FIX"
	case TransportTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// TransportEvent is an input to the transport FSM.
type TransportEvent int

const (
	TransportEventConnectionReceived TransportEvent = iota
	TransportEventFIXReceived
	TransportEventFIXHandled
	TransportEventTimeoutReceived
	TransportEventTimeoutHandled
	TransportEventDisconnectReceived
)

func (e TransportEvent) String() string {
	switch e {
	case TransportEventConnectionReceived:
		return "CONNECTION_RECEIVED"
	case TransportEventFIXReceived:
		return "FIX_RECEIVED"
	case TransportEventFIXHandled:
		return "FIX_HANDLED"
	case TransportEventTimeoutReceived:
		return "TIMEOUT_RECEIVED"
	case TransportEventTimeoutHandled:
		return "TIMEOUT_HANDLED"
	case TransportEventDisconnectReceived:
		return "DISCONNECT_RECEIVED"
	default:
		return "UNKNOWN"
	}
}

type transportTransition struct {
	from TransportState
	on   TransportEvent
	to   TransportState
}

// transportTable is the simple loop §4.5 describes: DISCONNECTED once
// on connection, then CONNECTED looping through FIX on every frame and
// through TIMEOUT on every quiescent tick, until a disconnect is
// observed.
var transportTable = []transportTransition{
	{TransportDisconnected, TransportEventConnectionReceived, TransportConnected},
	{TransportConnected, TransportEventFIXReceived, TransportFIX},
	{TransportFIX, TransportEventFIXHandled, TransportConnected},
	{TransportConnected, TransportEventTimeoutReceived, TransportTimeout},
	{TransportTimeout, TransportEventTimeoutHandled, TransportConnected},
	{TransportConnected, TransportEventDisconnectReceived, TransportDisconnected},
}

// TransportFSM mediates between the stream processor and the admin FSM,
// classifying raw connection/frame/timeout events (§4.5). Not safe for
// concurrent use.
type TransportFSM struct {
	state TransportState
}

// NewTransportFSM constructs a transport FSM in the DISCONNECTED state.
func NewTransportFSM() *TransportFSM {
	return &TransportFSM{state: TransportDisconnected}
}

// State returns the FSM's current state.
func (f *TransportFSM) State() TransportState { return f.state }

// Fire applies event, returning a SessionError (ErrInvalidTransition) if
// the current state does not accept it.
func (f *TransportFSM) Fire(event TransportEvent) error {
	for _, t := range transportTable {
		if t.from == f.state && t.on == event {
			f.state = t.to
			return nil
		}
	}
	return NewInvalidTransitionError(f.state.String(), event.String())
}

// CanFire reports whether event is accepted in the FSM's current state,
// without applying it.
func (f *TransportFSM) CanFire(event TransportEvent) bool {
	for _, t := range transportTable {
		if t.from == f.state && t.on == event {
			return true
		}
	}
	return false
}
