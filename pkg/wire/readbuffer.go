// Package wire implements the incremental byte-stream framer that turns
// a raw TCP (or other stream-oriented transport) byte feed into complete
// FIX frames, one at a time, without re-scanning bytes it has already
// classified.
package wire

import (
	"bytes"

	"github.com/quorumfx/fixengine/pkg/codec"
)

// State is a read-buffer framing state.
type State int

const (
	StateIdle State = iota
	StateExpectBeginString
	StateExpectBodyLength
	StateExpectBody
	StateEndOfFile
	StateClosed
	StateProtocolError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateExpectBeginString:
		return "EXPECT_BEGIN_STRING"
	case StateExpectBodyLength:
		return "EXPECT_BODY_LENGTH"
	case StateExpectBody:
		return "EXPECT_BODY"
	case StateEndOfFile:
		return "END_OF_FILE"
	case StateClosed:
		return "CLOSED"
	case StateProtocolError:
		return "PROTOCOL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is what Next returns after bytes are fed in via Receive.
type Event interface{ isEvent() }

// NeedsMoreData means the buffer has not yet accumulated a complete
// frame; HintBytes is the framer's best estimate of how many more bytes
// are needed before it is worth calling Next again (not a guarantee —
// the caller may feed fewer or more).
type NeedsMoreData struct {
	HintBytes int
}

func (NeedsMoreData) isEvent() {}

// DataReady carries one complete, still-encoded frame (BeginString
// through the trailing separator after CheckSum), ready for
// codec.DecodeMessage.
type DataReady struct {
	Frame []byte
}

func (DataReady) isEvent() {}

// EndOfFile means Close was called and no further frames remain
// buffered.
type EndOfFile struct{}

func (EndOfFile) isEvent() {}

// ReadBuffer is a single-pass incremental framer (one per connection).
// It is not safe for concurrent use.
type ReadBuffer struct {
	sep                   byte
	convertSepForChecksum bool

	state State
	buf   []byte
	// scanned is how far into buf this ReadBuffer has already looked for
	// separators; Next never re-scans bytes below this offset.
	scanned int

	bodyStart    int
	bodyLength   int
	trailerStart int

	closed bool
	err    error
}

// NewReadBuffer constructs a framer for the given field separator.
// convertSepForChecksum controls how the eventual checksum validation
// (performed by the caller via codec.Checksum/FrameBounds on the
// delivered frame) should treat sep; the read buffer itself only needs
// sep to locate field boundaries.
func NewReadBuffer(sep byte, convertSepForChecksum bool) *ReadBuffer {
	return &ReadBuffer{
		sep:                   sep,
		convertSepForChecksum: convertSepForChecksum,
		state:                 StateIdle,
	}
}

// State reports the framer's current state.
func (r *ReadBuffer) State() State { return r.state }

// Receive appends newly-arrived bytes to the internal buffer. It never
// blocks and never parses; parsing happens in Next.
func (r *ReadBuffer) Receive(data []byte) {
	if len(data) == 0 {
		return
	}
	r.buf = append(r.buf, data...)
}

// Close marks the stream as ended. Any bytes still buffered after Close
// that do not form a complete frame are a protocol error, not silently
// dropped.
func (r *ReadBuffer) Close() {
	r.closed = true
}

// Next advances the framer by as much as the currently-buffered bytes
// allow and returns the next event. Call it in a loop after each Receive
// until it returns NeedsMoreData.
func (r *ReadBuffer) Next() Event {
	if r.state == StateProtocolError {
		return NeedsMoreData{}
	}
	if r.state == StateClosed {
		return EndOfFile{}
	}

	for {
		switch r.state {
		case StateIdle:
			r.state = StateExpectBeginString
			r.scanned = 0

		case StateExpectBeginString:
			idx := bytes.IndexByte(r.buf[r.scanned:], r.sep)
			if idx < 0 {
				return r.needMoreOrEOF(1)
			}
			if !bytes.HasPrefix(r.buf[r.scanned:], []byte("8=")) {
				r.state = StateProtocolError
				r.err = codec.NewStructureDecodingError("expected BeginString field")
				return NeedsMoreData{}
			}
			r.scanned += idx + 1
			r.state = StateExpectBodyLength

		case StateExpectBodyLength:
			idx := bytes.IndexByte(r.buf[r.scanned:], r.sep)
			if idx < 0 {
				return r.needMoreOrEOF(1)
			}
			r.bodyStart = r.scanned + idx + 1
			bodyLenToken := r.buf[r.scanned : r.scanned+idx]
			if !bytes.HasPrefix(bodyLenToken, []byte("9=")) {
				r.state = StateProtocolError
				r.err = codec.NewStructureDecodingError("expected BodyLength field")
				return NeedsMoreData{}
			}
			n, err := parseNonNegativeInt(bodyLenToken[2:])
			if err != nil {
				r.state = StateProtocolError
				r.err = err
				return NeedsMoreData{}
			}
			r.bodyLength = n
			r.scanned = r.bodyStart
			r.state = StateExpectBody

		case StateExpectBody:
			r.trailerStart = r.bodyStart + r.bodyLength
			checksumFieldEnd := r.trailerStart + len("10=000") + 1
			if len(r.buf) < checksumFieldEnd {
				need := checksumFieldEnd - len(r.buf)
				return r.needMoreOrEOF(need)
			}
			// Confirm the checksum tag actually begins where BodyLength
			// said the body ends; a mismatch means the sender's
			// BodyLength disagreed with reality.
			if !bytes.HasPrefix(r.buf[r.trailerStart:], []byte("10=")) {
				r.state = StateProtocolError
				r.err = codec.NewStructureDecodingError("BodyLength does not land on CheckSum field")
				return NeedsMoreData{}
			}
			frameEnd := bytes.IndexByte(r.buf[r.trailerStart:], r.sep)
			if frameEnd < 0 {
				return r.needMoreOrEOF(1)
			}
			frameEnd = r.trailerStart + frameEnd + 1

			frame := make([]byte, frameEnd)
			copy(frame, r.buf[:frameEnd])

			r.buf = r.buf[frameEnd:]
			r.scanned = 0
			r.bodyStart = 0
			r.bodyLength = 0
			r.trailerStart = 0
			r.state = StateIdle

			return DataReady{Frame: frame}

		case StateEndOfFile:
			return EndOfFile{}
		}
	}
}

func (r *ReadBuffer) needMoreOrEOF(hint int) Event {
	if r.closed {
		if len(r.buf) > 0 {
			r.state = StateProtocolError
			r.err = codec.NewStructureDecodingError("stream closed with a partial frame buffered")
			return NeedsMoreData{}
		}
		r.state = StateEndOfFile
		return EndOfFile{}
	}
	return NeedsMoreData{HintBytes: hint}
}

// Err returns the error that drove the framer into PROTOCOL_ERROR, if
// any.
func (r *ReadBuffer) Err() error { return r.err }

func parseNonNegativeInt(token []byte) (int, error) {
	if len(token) == 0 {
		return 0, codec.NewStructureDecodingError("empty BodyLength")
	}
	n := 0
	for _, b := range token {
		if b < '0' || b > '9' {
			return 0, codec.NewStructureDecodingError("non-numeric BodyLength")
		}
		n = n*10 + int(b-'0')
	}
	return n, nil
}
