package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTransportStates = []TransportState{
	TransportDisconnected, TransportConnected, TransportFIX, TransportTimeout,
}

var allTransportEvents = []TransportEvent{
	TransportEventConnectionReceived, TransportEventFIXReceived, TransportEventFIXHandled,
	TransportEventTimeoutReceived, TransportEventTimeoutHandled, TransportEventDisconnectReceived,
}

func TestTransportFSM_EveryDefinedTransitionFiresDeterministically(t *testing.T) {
	for _, tr := range transportTable {
		f := NewTransportFSM()
		f.state = tr.from

		require.True(t, f.CanFire(tr.on))
		err := f.Fire(tr.on)
		require.NoError(t, err)
		assert.Equal(t, tr.to, f.State())
	}
}

func TestTransportFSM_UndefinedPairsRejected(t *testing.T) {
	defined := make(map[TransportState]map[TransportEvent]bool)
	for _, tr := range transportTable {
		if defined[tr.from] == nil {
			defined[tr.from] = make(map[TransportEvent]bool)
		}
		defined[tr.from][tr.on] = true
	}

	for _, state := range allTransportStates {
		for _, event := range allTransportEvents {
			if defined[state][event] {
				continue
			}
			f := NewTransportFSM()
			f.state = state

			assert.False(t, f.CanFire(event))
			err := f.Fire(event)
			require.Error(t, err)
			assert.Equal(t, state, f.State())

			var sessErr *SessionError
			require.ErrorAs(t, err, &sessErr)
			assert.Equal(t, ErrInvalidTransition, sessErr.Code)
		}
	}
}

func TestTransportFSM_ConnectThenFrameThenTimeoutThenDisconnect(t *testing.T) {
	f := NewTransportFSM()
	require.NoError(t, f.Fire(TransportEventConnectionReceived))
	assert.Equal(t, TransportConnected, f.State())

	require.NoError(t, f.Fire(TransportEventFIXReceived))
	assert.Equal(t, TransportFIX, f.State())

	require.NoError(t, f.Fire(TransportEventFIXHandled))
	assert.Equal(t, TransportConnected, f.State())

	require.NoError(t, f.Fire(TransportEventTimeoutReceived))
	assert.Equal(t, TransportTimeout, f.State())

	require.NoError(t, f.Fire(TransportEventTimeoutHandled))
	assert.Equal(t, TransportConnected, f.State())

	require.NoError(t, f.Fire(TransportEventDisconnectReceived))
	assert.Equal(t, TransportDisconnected, f.State())
}
