package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-known failure conditions that cross package
// boundaries. Callers should use [errors.Is] to match these.
var (
	// ErrProofNotFound means no proof record exists for the (did, proof) pair.
	ErrProofNotFound = errors.New("subscription proof not found")

	// ErrPeerNotFound covers both an absent peer directory record and a record
	// whose status is not connected; the relay does not distinguish the two.
	ErrPeerNotFound = errors.New("peer not found or not connected")

	// ErrNoActiveConnection is returned on disconnect when the caller has no
	// registered peer connection.
	ErrNoActiveConnection = errors.New("no active connection")

	// ErrDeliveryFailed indicates the delivery channel rejected or failed a
	// submission. The underlying transport error is wrapped, never surfaced to
	// callers.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// ValidationKind classifies why a signaling message was rejected.
type ValidationKind int

const (
	InvalidType ValidationKind = iota
	MissingField
	InvalidFormat
)

// ValidationError describes a rejected signaling message. Its Error string is
// the caller-facing message and is part of the API contract.
type ValidationError struct {
	Kind  ValidationKind
	Type  string
	Field string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("Missing required field for %s: %s", e.Type, e.Field)
	case InvalidFormat:
		if e.Type == string(TypeICECandidate) {
			return "Invalid ICE candidate format"
		}
		return fmt.Sprintf("Invalid SDP format for %s", e.Type)
	default:
		return fmt.Sprintf("Invalid signaling type: %s", e.Type)
	}
}
