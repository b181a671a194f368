package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allAdminStates = []AdminState{
	AdminNotConnected, AdminLogonSent, AdminLogonReceived, AdminLoggedOn,
	AdminResendRequested, AdminPendingTimeout, AdminLogoutSent,
	AdminLogoutReceived, AdminRejectLogon, AdminDisconnected,
}

var allAdminEvents = []AdminEvent{
	EventConnect, EventSendLogon, EventRecvLogon, EventLogonAccepted,
	EventLogonRejected, EventRecvReject, EventRecvHeartbeat, EventRecvTestRequest,
	EventRecvResendRequest, EventSendResendRequest, EventResendComplete,
	EventRecvSequenceReset, EventSendLogout, EventRecvLogout,
	EventTestRequestTimeout, EventTestHeartbeatInvalid, EventDisconnect,
}

func TestAdminFSM_EveryDefinedTransitionFiresDeterministically(t *testing.T) {
	for _, role := range []Role{RoleInitiator, RoleAcceptor} {
		table := initiatorTable
		if role == RoleAcceptor {
			table = acceptorTable
		}
		for _, tr := range table {
			f := NewAdminFSM(role)
			f.state = tr.from

			require.True(t, f.CanFire(tr.on))
			err := f.Fire(tr.on)
			require.NoError(t, err)
			assert.Equal(t, tr.to, f.State())
		}
	}
}

func TestAdminFSM_UndefinedPairsRejected(t *testing.T) {
	for _, role := range []Role{RoleInitiator, RoleAcceptor} {
		table := initiatorTable
		if role == RoleAcceptor {
			table = acceptorTable
		}
		defined := make(map[AdminState]map[AdminEvent]bool)
		for _, tr := range table {
			if defined[tr.from] == nil {
				defined[tr.from] = make(map[AdminEvent]bool)
			}
			defined[tr.from][tr.on] = true
		}

		for _, state := range allAdminStates {
			for _, event := range allAdminEvents {
				if defined[state][event] {
					continue
				}
				f := NewAdminFSM(role)
				f.state = state

				assert.False(t, f.CanFire(event))
				err := f.Fire(event)
				require.Error(t, err)
				assert.Equal(t, state, f.State(), "rejected event must leave state unchanged")

				var sessErr *SessionError
				require.ErrorAs(t, err, &sessErr)
				assert.Equal(t, ErrInvalidTransition, sessErr.Code)
			}
		}
	}
}

func TestAdminFSM_InitiatorLogonHandshake(t *testing.T) {
	f := NewAdminFSM(RoleInitiator)
	require.NoError(t, f.Fire(EventConnect))
	assert.Equal(t, AdminLogonSent, f.State())

	require.NoError(t, f.Fire(EventRecvLogon))
	assert.Equal(t, AdminLoggedOn, f.State())
}

func TestAdminFSM_AcceptorLogonHandshake(t *testing.T) {
	f := NewAdminFSM(RoleAcceptor)
	require.NoError(t, f.Fire(EventConnect))
	assert.Equal(t, AdminNotConnected, f.State())

	require.NoError(t, f.Fire(EventRecvLogon))
	assert.Equal(t, AdminLogonReceived, f.State())

	require.NoError(t, f.Fire(EventLogonAccepted))
	assert.Equal(t, AdminLoggedOn, f.State())
}

func TestAdminFSM_AcceptorRejectsLogonThenLogsOut(t *testing.T) {
	f := NewAdminFSM(RoleAcceptor)
	require.NoError(t, f.Fire(EventConnect))
	require.NoError(t, f.Fire(EventRecvLogon))
	assert.Equal(t, AdminLogonReceived, f.State())

	require.NoError(t, f.Fire(EventLogonRejected))
	assert.Equal(t, AdminRejectLogon, f.State())

	require.NoError(t, f.Fire(EventSendLogout))
	assert.Equal(t, AdminDisconnected, f.State())
}

func TestAdminFSM_RejectDuringHandshakeDisconnects(t *testing.T) {
	f := NewAdminFSM(RoleInitiator)
	require.NoError(t, f.Fire(EventConnect))
	assert.Equal(t, AdminLogonSent, f.State())

	require.NoError(t, f.Fire(EventRecvReject))
	assert.Equal(t, AdminDisconnected, f.State())

	f = NewAdminFSM(RoleAcceptor)
	require.NoError(t, f.Fire(EventConnect))
	require.NoError(t, f.Fire(EventRecvLogon))
	require.NoError(t, f.Fire(EventRecvReject))
	assert.Equal(t, AdminDisconnected, f.State())
}

func TestAdminFSM_InvalidTestHeartbeatRejectsAcceptor(t *testing.T) {
	f := NewAdminFSM(RoleAcceptor)
	f.state = AdminPendingTimeout

	require.NoError(t, f.Fire(EventTestHeartbeatInvalid))
	assert.Equal(t, AdminRejectLogon, f.State())
}

func TestAdminFSM_InvalidTestHeartbeatLogsOutInitiator(t *testing.T) {
	f := NewAdminFSM(RoleInitiator)
	f.state = AdminPendingTimeout

	require.NoError(t, f.Fire(EventTestHeartbeatInvalid))
	assert.Equal(t, AdminLogoutSent, f.State())
}

func TestAdminFSM_TestRequestTimeoutEscalatesToLogout(t *testing.T) {
	f := NewAdminFSM(RoleInitiator)
	f.state = AdminLoggedOn

	require.NoError(t, f.Fire(EventTestRequestTimeout))
	assert.Equal(t, AdminPendingTimeout, f.State())

	require.NoError(t, f.Fire(EventTestRequestTimeout))
	assert.Equal(t, AdminLogoutSent, f.State())
}
