// Package domain holds the shared data model of the signaling relay: the
// signaling message union, peer connection records, subscription proofs, and
// the delivery envelope handed to the delivery channel.
package domain

import "github.com/pion/webrtc/v4"

// MessageType discriminates the closed set of signaling message variants.
type MessageType string

const (
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeICECandidate MessageType = "ice-candidate"
)

// Valid reports whether t is one of the supported signaling types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return true
	default:
		return false
	}
}

// SignalingMessage is a validated signaling payload. Exactly one of SDP or
// Candidate is populated, depending on Type. Messages are immutable once
// constructed and live only for the duration of a single request.
type SignalingMessage struct {
	Type       MessageType
	PeerID     string
	FromPeerID string

	// SDP is set for offer/answer messages and always starts with "v=0".
	SDP string
	// Candidate is set for ice-candidate messages and always starts with
	// "candidate:".
	Candidate string
}

// SubscriptionProof is a proof store record keyed by (DID, Proof). The relay
// only reads proofs; issuance and renewal happen elsewhere.
type SubscriptionProof struct {
	DID       string
	Proof     string
	ExpiresAt int64 // epoch milliseconds
}

// Peer connection status values as stored in the peer directory.
const (
	PeerStatusConnected    = "connected"
	PeerStatusDisconnected = "disconnected"
)

// PeerConnection is a peer directory record. The relay treats it as a
// point-in-time snapshot: status is a hint, not a liveness guarantee.
type PeerConnection struct {
	PeerID       string
	DID          string
	ConnectionID string
	Endpoint     string
	Status       string
	ConnectedAt  int64 // epoch milliseconds
}

// Envelope is the outbound delivery unit built by the dispatcher. It carries
// the original message fields plus relay-assigned routing metadata. ICEServers
// is attached only to offer/answer envelopes.
type Envelope struct {
	Type       MessageType `json:"type"`
	PeerID     string      `json:"peerId"`
	FromPeerID string      `json:"fromPeerId,omitempty"`
	SDP        string      `json:"sdp,omitempty"`
	Candidate  string      `json:"candidate,omitempty"`

	Timestamp          int64  `json:"timestamp"`
	TargetPeerID       string `json:"targetPeerId"`
	TargetConnectionID string `json:"targetConnectionId"`
	TargetEndpoint     string `json:"targetEndpoint"`

	ICEServers              []webrtc.ICEServer `json:"iceServers,omitempty"`
	AttemptDirectConnection bool               `json:"attemptDirectConnection,omitempty"`
}
