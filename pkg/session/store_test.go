package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SequenceStateStartsAtOne(t *testing.T) {
	s := NewMemoryStore()
	id := ID{SenderCompID: "A", TargetCompID: "B"}

	st, err := s.LoadSequenceState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, SequenceState{NextSent: 1, NextRecv: 1}, st)
}

func TestMemoryStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := ID{SenderCompID: "A", TargetCompID: "B"}

	require.NoError(t, s.SaveSequenceState(ctx, id, SequenceState{NextSent: 7, NextRecv: 4}))
	st, err := s.LoadSequenceState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SequenceState{NextSent: 7, NextRecv: 4}, st)

	// A different CompID pair is independent state.
	other, err := s.LoadSequenceState(ctx, ID{SenderCompID: "B", TargetCompID: "A"})
	require.NoError(t, err)
	assert.Equal(t, SequenceState{NextSent: 1, NextRecv: 1}, other)
}

func TestMemoryStore_ResetDiscardsStateAndJournals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := ID{SenderCompID: "A", TargetCompID: "B"}

	require.NoError(t, s.SaveSequenceState(ctx, id, SequenceState{NextSent: 9, NextRecv: 9}))
	require.NoError(t, s.SaveSentMessage(ctx, id, 8, []byte("sent")))
	require.NoError(t, s.SaveReceivedMessage(ctx, id, []byte("received")))

	require.NoError(t, s.ResetSequenceState(ctx, id))

	st, err := s.LoadSequenceState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, SequenceState{NextSent: 1, NextRecv: 1}, st)

	sent, err := s.LoadSentMessages(ctx, id, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, sent)
	assert.Empty(t, s.ReceivedMessages(id))
}

func TestMemoryStore_SentMessageRangeQuery(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := ID{SenderCompID: "A", TargetCompID: "B"}

	for seq := int64(1); seq <= 5; seq++ {
		require.NoError(t, s.SaveSentMessage(ctx, id, seq, []byte{byte('0' + seq)}))
	}

	got, err := s.LoadSentMessages(ctx, id, 2, 4)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("2"), got[0])
	assert.Equal(t, []byte("4"), got[2])

	// toSeqNum of 0 means through the highest stored.
	got, err = s.LoadSentMessages(ctx, id, 4, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("5"), got[1])
}

func TestMemoryStore_ReceiveJournalPreservesArrivalOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := ID{SenderCompID: "A", TargetCompID: "B"}

	frames := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, f := range frames {
		require.NoError(t, s.SaveReceivedMessage(ctx, id, f))
	}

	got := s.ReceivedMessages(id)
	require.Len(t, got, 3)
	for i, f := range frames {
		assert.Equal(t, f, got[i])
	}
}

func TestMemoryStore_CancelledContextRejected(t *testing.T) {
	s := NewMemoryStore()
	id := ID{SenderCompID: "A", TargetCompID: "B"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadSequenceState(ctx, id)
	assert.Error(t, err)
	assert.Error(t, s.SaveSequenceState(ctx, id, SequenceState{NextSent: 1, NextRecv: 1}))
	assert.Error(t, s.SaveReceivedMessage(ctx, id, []byte("frame")))
}
