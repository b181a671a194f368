package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_IsSumModulo256(t *testing.T) {
	raw := []byte("8=FIX.4.4\x019=5\x0135=0\x01")
	var sum int
	for _, b := range raw {
		sum += int(b)
	}
	assert.Equal(t, byte(sum%256), Checksum(raw, 0x01, false))
}

func TestChecksum_ConvertsDiagnosticSeparator(t *testing.T) {
	soh := []byte("8=FIX.4.4\x019=5\x0135=0\x01")
	pipe := []byte("8=FIX.4.4|9=5|35=0|")

	assert.Equal(t, Checksum(soh, 0x01, false), Checksum(pipe, '|', true))
}

func TestChecksum_NoConversionDiffersFromSOH(t *testing.T) {
	soh := []byte("8=FIX.4.4\x019=5\x0135=0\x01")
	pipe := []byte("8=FIX.4.4|9=5|35=0|")

	assert.NotEqual(t, Checksum(soh, 0x01, false), Checksum(pipe, '|', false))
}

func TestFormatChecksum_ZeroPads(t *testing.T) {
	assert.Equal(t, "007", FormatChecksum(7))
	assert.Equal(t, "123", FormatChecksum(123))
}

func TestFrameBounds_LocatesBodyAndTrailer(t *testing.T) {
	raw := []byte("8=FIX.4.4\x019=12\x0135=0\x0134=1\x0110=000\x01")

	bodyStart, trailerStart, err := FrameBounds(raw, 0x01)
	require.NoError(t, err)
	assert.Equal(t, "35=0\x0134=1\x01", string(raw[bodyStart:trailerStart]))
}

func TestFrameBounds_MissingSeparatorErrors(t *testing.T) {
	_, _, err := FrameBounds([]byte("not a fix message"), 0x01)
	assert.ErrorIs(t, err, ErrMissingSeparator)
}

func TestFrameBounds_MissingChecksumErrors(t *testing.T) {
	raw := []byte("8=FIX.4.4\x019=5\x0135=0\x01")
	_, _, err := FrameBounds(raw, 0x01)
	assert.ErrorIs(t, err, ErrMissingChecksumField)
}
