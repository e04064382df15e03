// Package signaling parses and validates inbound signaling payloads. The
// validator is pure: identical input always yields identical output, and no
// I/O happens here. SDP and ICE candidate bodies are opaque beyond the prefix
// check; the relay never interprets their structure.
package signaling

import (
	"encoding/json"
	"strings"

	"github.com/peermesh/signal-relay/internal/domain"
)

const (
	sdpPrefix       = "v=0"
	candidatePrefix = "candidate:"
)

// RawMessage is the decoded but not yet validated request body. Unknown
// fields are ignored rather than rejected; callers may attach metadata the
// relay does not care about.
type RawMessage struct {
	Type       string `json:"type"`
	PeerID     string `json:"peerId"`
	FromPeerID string `json:"fromPeerId,omitempty"`
	SDP        string `json:"sdp,omitempty"`
	Candidate  string `json:"candidate,omitempty"`
}

// ParseRequest decodes a request body into a RawMessage.
func ParseRequest(body []byte) (RawMessage, error) {
	var raw RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return RawMessage{}, err
	}
	return raw, nil
}

// Validate checks raw against the closed signaling type set and the per-type
// field contracts, returning the typed message on success. A present but
// empty field counts as missing. Format checks run only once the required
// field is present.
func Validate(raw RawMessage) (domain.SignalingMessage, *domain.ValidationError) {
	msgType := domain.MessageType(raw.Type)
	if !msgType.Valid() {
		return domain.SignalingMessage{}, &domain.ValidationError{Kind: domain.InvalidType, Type: raw.Type}
	}

	msg := domain.SignalingMessage{
		Type:       msgType,
		PeerID:     raw.PeerID,
		FromPeerID: raw.FromPeerID,
	}

	switch msgType {
	case domain.TypeOffer, domain.TypeAnswer:
		if raw.SDP == "" {
			return domain.SignalingMessage{}, &domain.ValidationError{Kind: domain.MissingField, Type: raw.Type, Field: "sdp"}
		}
		if !strings.HasPrefix(raw.SDP, sdpPrefix) {
			return domain.SignalingMessage{}, &domain.ValidationError{Kind: domain.InvalidFormat, Type: raw.Type}
		}
		msg.SDP = raw.SDP
	case domain.TypeICECandidate:
		if raw.Candidate == "" {
			return domain.SignalingMessage{}, &domain.ValidationError{Kind: domain.MissingField, Type: raw.Type, Field: "candidate"}
		}
		if !strings.HasPrefix(raw.Candidate, candidatePrefix) {
			return domain.SignalingMessage{}, &domain.ValidationError{Kind: domain.InvalidFormat, Type: raw.Type}
		}
		msg.Candidate = raw.Candidate
	}

	return msg, nil
}
