// Package internal holds the random material generators shared by the root
// package: session identifiers and opaque token values. Nothing here is part
// of the public API.
package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const tokenValueSize = 32

// SessionID is a 16-byte random session identifier.
type SessionID [16]byte

func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}

func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	raw, err := base64.RawURLEncoding.DecodeString(sessionID)
	if err != nil {
		return sid, err
	}
	if len(raw) != len(sid) {
		return sid, errors.New("invalid session id size")
	}

	copy(sid[:], raw)
	return sid, nil
}

// NewTokenValue draws 32 bytes from the CSPRNG and encodes them as a compact
// opaque string. Collision probability is negligible; callers treat values as
// globally unique.
func NewTokenValue() (string, error) {
	var raw [tokenValueSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
