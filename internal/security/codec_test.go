package security_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/security"
)

func newCodec(t *testing.T, secret string) *security.IDCodec {
	t.Helper()

	c, err := security.NewIDCodec(secret)
	require.NoError(t, err)

	return c
}

func TestRoundTrip(t *testing.T) {
	c := newCodec(t, "changeme-local-secret")

	for _, id := range []uint64{0, 1, 42, 1234567, 12345678, 123456789, math.MaxUint64} {
		encoded := c.Encode(id)
		assert.Zero(t, len(encoded)%16)

		decoded, err := c.Decode(encoded)
		require.NoError(t, err, "id %d", id)
		assert.Equal(t, id, decoded)
	}
}

func TestEncodeLength(t *testing.T) {
	c := newCodec(t, "changeme-local-secret")

	// 7 digits fit one block, 8 digits need a second block of padding
	assert.Len(t, c.Encode(1234567), 16)
	assert.Len(t, c.Encode(12345678), 32)
}

func TestEncodeIsDeterministic(t *testing.T) {
	a := newCodec(t, "changeme-local-secret")
	b := newCodec(t, "changeme-local-secret")
	other := newCodec(t, "another-secret")

	assert.Equal(t, a.Encode(7), b.Encode(7))
	assert.NotEqual(t, a.Encode(7), a.Encode(8))
	assert.NotEqual(t, a.Encode(7), other.Encode(7))
}

func TestDecodeMalformed(t *testing.T) {
	c := newCodec(t, "changeme-local-secret")

	for _, input := range []string{
		"",
		"not-hex",
		"abcd",
		"0123456789abcdef0",
		"0123456789abcdef",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := c.Decode(input)
			require.ErrorIs(t, err, security.ErrMalformedID)
		})
	}
}

func TestDecodeWithWrongSecret(t *testing.T) {
	encoded := newCodec(t, "changeme-local-secret").Encode(99)

	id, err := newCodec(t, "another-secret").Decode(encoded)
	if err == nil {
		assert.NotEqual(t, uint64(99), id)
	} else {
		require.ErrorIs(t, err, security.ErrMalformedID)
	}
}

func TestDecodeAll(t *testing.T) {
	c := newCodec(t, "changeme-local-secret")

	ids, err := c.DecodeAll([]string{c.Encode(3), c.Encode(1)})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, ids)

	_, err = c.DecodeAll([]string{c.Encode(3), "zz"})
	require.ErrorIs(t, err, security.ErrMalformedID)
}

func TestNewIDCodecRejectsShortSecret(t *testing.T) {
	_, err := security.NewIDCodec("")
	require.ErrorIs(t, err, security.ErrInvalidSecret)
}
