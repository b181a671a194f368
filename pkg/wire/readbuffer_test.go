package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() []byte {
	body := "35=0\x0134=1\x0149=INITIATOR\x0156=ACCEPTOR\x0152=20260729-12:00:00\x01"
	bodyLen := len(body)
	head := "8=FIX.4.4\x019=" + itoa(bodyLen) + "\x01"
	sum := byte(0)
	for _, b := range []byte(head + body) {
		sum += b
	}
	trailer := "10=" + pad3(int(sum)) + "\x01"
	return []byte(head + body + trailer)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func pad3(n int) string {
	s := itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// TestReadBuffer_AssemblesFrameFromArbitraryChunks feeds one complete
// frame split into small, uneven chunks and confirms the framer reports
// NeedsMoreData until the final byte arrives, then yields the frame
// whole.
func TestReadBuffer_AssemblesFrameFromArbitraryChunks(t *testing.T) {
	frame := sampleFrame()

	chunkSizes := []int{1, 7, 3, 50, 2, 1000}
	rb := NewReadBuffer(0x01, false)

	pos := 0
	var got Event
	for _, size := range chunkSizes {
		if pos >= len(frame) {
			break
		}
		end := pos + size
		if end > len(frame) {
			end = len(frame)
		}
		rb.Receive(frame[pos:end])
		pos = end

		got = rb.Next()
		if _, ok := got.(DataReady); ok {
			break
		}
		assert.IsType(t, NeedsMoreData{}, got)
	}

	require.IsType(t, DataReady{}, got)
	assert.Equal(t, frame, got.(DataReady).Frame)
	assert.Equal(t, StateIdle, rb.State())
}

// TestReadBuffer_FiftyByteChunks feeds a 156-byte concatenation of two
// 78-byte frames in fixed 50-byte chunks, confirming both frames are
// eventually recovered in order.
func TestReadBuffer_FiftyByteChunks(t *testing.T) {
	f1 := sampleFrame()
	f2 := sampleFrame()
	concatenated := append(append([]byte{}, f1...), f2...)

	rb := NewReadBuffer(0x01, false)
	var frames [][]byte

	const chunkSize = 50
	for pos := 0; pos < len(concatenated); pos += chunkSize {
		end := pos + chunkSize
		if end > len(concatenated) {
			end = len(concatenated)
		}
		rb.Receive(concatenated[pos:end])

		for {
			ev := rb.Next()
			if dr, ok := ev.(DataReady); ok {
				frames = append(frames, dr.Frame)
				continue
			}
			break
		}
	}

	require.Len(t, frames, 2)
	assert.Equal(t, f1, frames[0])
	assert.Equal(t, f2, frames[1])
}

func TestReadBuffer_MissingBeginStringIsProtocolError(t *testing.T) {
	rb := NewReadBuffer(0x01, false)
	rb.Receive([]byte("35=0\x0134=1\x01"))

	ev := rb.Next()
	assert.IsType(t, NeedsMoreData{}, ev)
	assert.Equal(t, StateProtocolError, rb.State())
	require.Error(t, rb.Err())
}

func TestReadBuffer_NonNumericBodyLengthIsProtocolError(t *testing.T) {
	rb := NewReadBuffer(0x01, false)
	rb.Receive([]byte("8=FIX.4.4\x019=abc\x0135=0\x01"))

	ev := rb.Next()
	assert.IsType(t, NeedsMoreData{}, ev)
	assert.Equal(t, StateProtocolError, rb.State())
	require.Error(t, rb.Err())
}

func TestReadBuffer_BodyLengthMismatchIsProtocolError(t *testing.T) {
	// BodyLength claims 4 bytes but the real body is longer, so the byte
	// immediately after does not start a CheckSum field.
	rb := NewReadBuffer(0x01, false)
	rb.Receive([]byte("8=FIX.4.4\x019=4\x0135=0\x0149=X\x0110=000\x01"))

	ev := rb.Next()
	assert.IsType(t, NeedsMoreData{}, ev)
	assert.Equal(t, StateProtocolError, rb.State())
	require.Error(t, rb.Err())
}

func TestReadBuffer_CloseWithPartialFrameIsProtocolError(t *testing.T) {
	rb := NewReadBuffer(0x01, false)
	rb.Receive([]byte("8=FIX.4.4\x019=20\x0135=0\x01"))
	rb.Close()

	ev := rb.Next()
	assert.IsType(t, NeedsMoreData{}, ev)
	assert.Equal(t, StateProtocolError, rb.State())
	require.Error(t, rb.Err())
}

func TestReadBuffer_CloseAfterCompleteFramesReportsEndOfFile(t *testing.T) {
	frame := sampleFrame()
	rb := NewReadBuffer(0x01, false)
	rb.Receive(frame)

	ev := rb.Next()
	require.IsType(t, DataReady{}, ev)

	rb.Close()
	ev = rb.Next()
	assert.IsType(t, EndOfFile{}, ev)
}

func TestReadBuffer_StaysInProtocolErrorOnceEntered(t *testing.T) {
	rb := NewReadBuffer(0x01, false)
	rb.Receive([]byte("8=FIX.4.4\x019=abc\x01"))
	rb.Next()
	require.Equal(t, StateProtocolError, rb.State())

	rb.Receive([]byte("more garbage"))
	ev := rb.Next()
	assert.IsType(t, NeedsMoreData{}, ev)
	assert.Equal(t, StateProtocolError, rb.State())
}
