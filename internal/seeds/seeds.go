// Package seeds generates session secrets and their public commitments.
//
// A session's secret seed is fixed at creation and only its SHA-256
// commitment is shown to the player, proving the server cannot pick
// outcomes adaptively once play begins.
package seeds

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// secretBytes gives 256 bits of entropy per secret seed.
const secretBytes = 32

// NewSecret returns a fresh hex-encoded secret seed.
//
// CheckEntropy must have passed at startup; a read failure here means the
// OS entropy source broke mid-flight, which is not a per-call condition we
// can recover from.
func NewSecret() string {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("seeds: entropy source failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Commit returns the public commitment for a secret seed: the lowercase
// hex SHA-256 of the seed string. Protocol constant; clients verify
// Commit(revealed secret) against the commitment shown at session open.
func Commit(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// CheckEntropy verifies the secure random source is usable. The process
// must refuse to start when it is not, rather than fall back to a weaker
// source.
func CheckEntropy() error {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("secure random source unavailable: %w", err)
	}
	return nil
}
