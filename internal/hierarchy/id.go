package hierarchy

import (
	"encoding/base32"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

const shortIDLength = 12

var crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// IDFunc returns a fresh identifier.
type IDFunc func() (string, error)

// NewID returns a 12-char Crockford base32 id taken from the random bits of
// a UUIDv7, so two ids minted in the same millisecond still differ.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new uuidv7: %w", err)
	}

	return shortID(id)
}

// shortID encodes the top 60 of the 74 random bits of a UUIDv7:
// the 12-bit rand_a followed by the high 48 bits of rand_b.
func shortID(id uuid.UUID) (string, error) {
	if id.Version() != 7 || id.Variant() != uuid.RFC4122 {
		return "", fmt.Errorf("short id: not a uuidv7: %s", id)
	}

	randA := binary.BigEndian.Uint64(id[0:8]) & 0xfff
	randB := binary.BigEndian.Uint64(id[8:16]) & (1<<62 - 1)

	var buf [8]byte

	// 60 bits shifted to the top of 64 fill exactly 12 base32 chars.
	binary.BigEndian.PutUint64(buf[:], (randA<<48|randB>>14)<<4)

	return crockford.EncodeToString(buf[:])[:shortIDLength], nil
}
