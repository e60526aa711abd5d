package cryptox

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/privnotes/notes/internal/common"
)

// TokenSize is the number of random bytes in a one-time token.
const TokenSize = 16

// NewToken generates a raw one-time token and its storable digest. Only the
// digest is persisted; the raw value goes into the emailed link.
func NewToken() (raw string, hash string, err error) {
	raw, err = common.MakeRandHexString(TokenSize)
	if err != nil {
		return "", "", err
	}
	return raw, HashToken(raw), nil
}

// HashToken returns the hex sha256 digest of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
