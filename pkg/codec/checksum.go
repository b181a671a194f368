package codec

import (
	"bytes"
	"errors"
	"fmt"
)

// Checksum computes the FIX modular checksum of raw: the sum of its
// bytes modulo 256. When convertSepForChecksum is set and sep is not SOH
// (0x01), every occurrence of sep is treated as SOH before summing — the
// wire separator may be a diagnostic substitute (e.g. '|') but the
// checksum is always defined over the SOH-framed form (§6).
func Checksum(raw []byte, sep byte, convertSepForChecksum bool) byte {
	var sum int
	substitute := convertSepForChecksum && sep != 0x01
	for _, b := range raw {
		if substitute && b == sep {
			b = 0x01
		}
		sum += int(b)
	}
	return byte(sum % 256)
}

// FormatChecksum renders a checksum as the three-digit zero-padded ASCII
// FIX expects, e.g. 7 -> "007".
func FormatChecksum(sum byte) string {
	return fmt.Sprintf("%03d", sum)
}

// ErrMissingSeparator indicates a frame lacked the BeginString/BodyLength
// separators frameBounds needs to locate the body.
var ErrMissingSeparator = errors.New("frame missing required separator")

// ErrMissingChecksumField indicates a frame did not contain a "10=" tag.
var ErrMissingChecksumField = errors.New("frame missing checksum field")

// FrameBounds locates, within a complete raw frame, the byte offset where
// the body begins (immediately after the BodyLength field's separator)
// and the byte offset where the CheckSum field begins (the literal "10="
// token). The message decoder (§4.2.2) uses these to recompute
// BodyLength and CheckSum against what the sender actually sent, and the
// encoder uses them to find the body it regenerates the integrity fields
// around, independent of field declaration order.
func FrameBounds(raw []byte, sep byte) (bodyStart, trailerStart int, err error) {
	i1 := bytes.IndexByte(raw, sep)
	if i1 < 0 {
		return 0, 0, fmt.Errorf("%w: BeginString", ErrMissingSeparator)
	}
	rest := raw[i1+1:]
	i2 := bytes.IndexByte(rest, sep)
	if i2 < 0 {
		return 0, 0, fmt.Errorf("%w: BodyLength", ErrMissingSeparator)
	}
	bodyStart = i1 + 1 + i2 + 1

	idx := bytes.LastIndex(raw, []byte("10="))
	if idx < 0 || idx < bodyStart {
		return 0, 0, ErrMissingChecksumField
	}
	return bodyStart, idx, nil
}
