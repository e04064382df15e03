// Package dispatch assembles delivery envelopes and hands them to the
// delivery channel.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/peermesh/signal-relay/internal/delivery"
	"github.com/peermesh/signal-relay/internal/domain"
)

// Dispatcher builds a RelayEnvelope per request and submits it exactly once.
// The ICE server list is fixed at construction and shared by every envelope.
type Dispatcher struct {
	channel    delivery.Channel
	iceServers []webrtc.ICEServer
	log        *slog.Logger
	now        func() time.Time
}

func New(channel delivery.Channel, iceServers []webrtc.ICEServer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		channel:    channel,
		iceServers: iceServers,
		log:        logger,
		now:        time.Now,
	}
}

// Dispatch copies the message into an envelope, stamps it with the current
// time and the resolved target coordinates, and submits it. ICE servers ride
// along only on offer/answer envelopes; offers additionally signal that the
// receiving peer should attempt a direct connection. Returns the channel's
// delivery identifier.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.SignalingMessage, target domain.PeerConnection) (string, error) {
	env := domain.Envelope{
		Type:       msg.Type,
		PeerID:     msg.PeerID,
		FromPeerID: msg.FromPeerID,
		SDP:        msg.SDP,
		Candidate:  msg.Candidate,

		Timestamp:          d.now().UnixMilli(),
		TargetPeerID:       target.PeerID,
		TargetConnectionID: target.ConnectionID,
		TargetEndpoint:     target.Endpoint,
	}
	switch msg.Type {
	case domain.TypeOffer:
		env.ICEServers = d.iceServers
		env.AttemptDirectConnection = true
	case domain.TypeAnswer:
		env.ICEServers = d.iceServers
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	deliveryID, err := d.channel.Submit(ctx, payload)
	if err != nil {
		d.log.Error("envelope submission failed", "type", msg.Type, "target_peer_id", target.PeerID, "err", err)
		return "", fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	from := msg.FromPeerID
	if from == "" {
		from = "unknown"
	}
	d.log.Info("forwarded signaling message",
		"type", msg.Type,
		"from_peer_id", from,
		"target_peer_id", target.PeerID,
		"delivery_id", deliveryID,
	)
	return deliveryID, nil
}

// ICEServers exposes the process-wide list for offer responses.
func (d *Dispatcher) ICEServers() []webrtc.ICEServer {
	return d.iceServers
}
