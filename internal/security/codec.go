// Package security encodes database ids into opaque strings for the outer surfaces.
package security

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/blowfish"
)

const padChar = '!'

var (
	// ErrMalformedID is returned when an encoded id cannot be decoded.
	ErrMalformedID = errors.New("malformed id")
	// ErrInvalidSecret is returned for a key blowfish does not accept.
	ErrInvalidSecret = errors.New("invalid id secret")
)

// IDCodec maps ids to hex strings with blowfish in ECB mode.
// It is safe for concurrent use.
type IDCodec struct {
	cipher *blowfish.Cipher
}

// NewIDCodec returns a codec keyed by secret (4 to 56 bytes).
func NewIDCodec(secret string) (*IDCodec, error) {
	c, err := blowfish.NewCipher([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}

	return &IDCodec{cipher: c}, nil
}

// Encode returns the hex form of id.
func (c *IDCodec) Encode(id uint64) string {
	plain := []byte(strconv.FormatUint(id, 10))

	// always pad, a full block of padding when already aligned
	pad := blowfish.BlockSize - len(plain)%blowfish.BlockSize
	buf := append(bytes.Repeat([]byte{padChar}, pad), plain...)

	for i := 0; i < len(buf); i += blowfish.BlockSize {
		c.cipher.Encrypt(buf[i:i+blowfish.BlockSize], buf[i:i+blowfish.BlockSize])
	}

	return hex.EncodeToString(buf)
}

// Decode reverses Encode.
func (c *IDCodec) Decode(encoded string) (uint64, error) {
	buf, err := hex.DecodeString(encoded)
	if err != nil || len(buf) == 0 || len(buf)%blowfish.BlockSize != 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, encoded)
	}

	for i := 0; i < len(buf); i += blowfish.BlockSize {
		c.cipher.Decrypt(buf[i:i+blowfish.BlockSize], buf[i:i+blowfish.BlockSize])
	}

	digits := bytes.TrimLeft(buf, string(padChar))
	if len(digits) == 0 || len(digits) == len(buf) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, encoded)
	}

	id, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, encoded)
	}

	return id, nil
}

// DecodeAll decodes every value, failing on the first malformed one.
func (c *IDCodec) DecodeAll(encoded []string) ([]uint64, error) {
	out := make([]uint64, 0, len(encoded))

	for _, e := range encoded {
		id, err := c.Decode(e)
		if err != nil {
			return nil, err
		}

		out = append(out, id)
	}

	return out, nil
}
