package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

// Pockets is the number of pockets on a European wheel (0-36).
const Pockets = 37

// Outcome is the verifiable result of a single spin derivation.
type Outcome struct {
	Pocket int    `json:"pocket"`
	Color  Color  `json:"color"`
	Tag    string `json:"hmac_hex"`
}

// Derive maps (secretSeed, clientSeed, nonce) to a wheel outcome.
//
// The construction is a fixed protocol constant, not a tunable: the
// verification tag is the lowercase hex HMAC-SHA256 digest of the message
// "clientSeed:nonce" (nonce in decimal) keyed by the secret seed, and the
// pocket is the first 4 digest bytes read as a big-endian uint32 reduced
// modulo 37. Clients re-derive outcomes independently, so changing the
// message format, the prefix width, or the reduction is a breaking change.
//
// Derive is pure: identical inputs always produce identical outputs.
func Derive(secretSeed, clientSeed string, nonce uint64) Outcome {
	h := hmac.New(sha256.New, []byte(secretSeed))
	h.Write([]byte(clientSeed + ":" + strconv.FormatUint(nonce, 10)))
	digest := h.Sum(nil)

	pocket := int(binary.BigEndian.Uint32(digest[:4]) % Pockets)

	return Outcome{
		Pocket: pocket,
		Color:  ColorOf(pocket),
		Tag:    hex.EncodeToString(digest),
	}
}
