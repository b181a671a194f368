package session

import "fmt"

// ErrorCode categorizes a session-level failure the way StoreError codes
// categorize a repository failure: a caller switching on Code can react
// without string-matching Error().
type ErrorCode int

const (
	// ErrInvalidTransition indicates an event arrived that the current
	// admin or transport state does not accept.
	ErrInvalidTransition ErrorCode = iota

	// ErrLogon indicates a Logon handshake failed validation (bad
	// CompIDs, sequence reset disallowed, encryption scheme mismatch).
	ErrLogon

	// ErrSequence indicates an inbound sequence number was outside the
	// range the session is prepared to accept.
	ErrSequence

	// ErrIO indicates a transport-level failure (connection reset, write
	// failure) rather than a protocol violation.
	ErrIO

	// ErrStore indicates the sequence/message store failed to persist or
	// retrieve state the session needed to proceed.
	ErrStore

	// ErrTimeout indicates a timer (logon window, test-request response)
	// expired without the expected event.
	ErrTimeout
)

// SessionError is the error taxonomy for everything above the wire codec
// (which raises its own EncodingError/DecodingError): state machine
// transitions, logon handshakes, sequence gaps, timers, and the store.
type SessionError struct {
	Code    ErrorCode
	Message string
	State   string
}

func (e *SessionError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s (state %s)", e.Message, e.State)
	}
	return e.Message
}

func NewInvalidTransitionError(state string, event string) *SessionError {
	return &SessionError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("event %s not accepted", event),
		State:   state,
	}
}

func NewLogonError(reason string) *SessionError {
	return &SessionError{Code: ErrLogon, Message: reason}
}

func NewSequenceError(reason string) *SessionError {
	return &SessionError{Code: ErrSequence, Message: reason}
}

func NewIOError(reason string) *SessionError {
	return &SessionError{Code: ErrIO, Message: reason}
}

func NewStoreError(reason string) *SessionError {
	return &SessionError{Code: ErrStore, Message: reason}
}

func NewTimeoutError(reason string) *SessionError {
	return &SessionError{Code: ErrTimeout, Message: reason}
}
