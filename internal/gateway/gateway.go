// Package gateway is the caller-facing surface of the relay. Each request
// runs a strictly sequential, short-circuiting pipeline: header checks, proof
// verification, message validation, peer resolution, dispatch. The first
// failing step terminates the request with its mapped status; no step runs
// after an earlier one has failed, and nothing is retried. The gateway holds
// no memory of prior requests.
package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/peermesh/signal-relay/internal/directory"
	"github.com/peermesh/signal-relay/internal/domain"
	"github.com/peermesh/signal-relay/internal/httpserver"
	"github.com/peermesh/signal-relay/internal/metrics"
	"github.com/peermesh/signal-relay/internal/signaling"
)

const (
	headerDID   = "X-DID"
	headerProof = "X-Subscription-Proof"

	maxBodyBytes = 64 << 10
)

// Verifier checks a caller's subscription proof. Failure reasons are
// deliberately collapsed into the boolean.
type Verifier interface {
	Verify(ctx context.Context, did, proof string) bool
}

// Directory resolves a target peer to its connection record.
type Directory interface {
	Lookup(ctx context.Context, peerID string) (domain.PeerConnection, error)
}

// Dispatcher forwards a validated message to the resolved peer.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.SignalingMessage, target domain.PeerConnection) (string, error)
	ICEServers() []webrtc.ICEServer
}

// Registry manages the caller's own connection lifecycle.
type Registry interface {
	Connect(ctx context.Context, did, endpoint string) (directory.ConnectResult, error)
	Disconnect(ctx context.Context, did string) error
	Status(ctx context.Context, did string) (domain.PeerConnection, error)
}

type Gateway struct {
	verifier   Verifier
	directory  Directory
	dispatcher Dispatcher
	registry   Registry
	metrics    *metrics.Metrics
	log        *slog.Logger

	// timeout bounds each external call (proof lookup, peer lookup, delivery
	// submission) individually.
	timeout time.Duration
}

type Config struct {
	Verifier   Verifier
	Directory  Directory
	Dispatcher Dispatcher
	Registry   Registry
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Timeout    time.Duration
}

func New(cfg Config) *Gateway {
	return &Gateway{
		verifier:   cfg.Verifier,
		directory:  cfg.Directory,
		dispatcher: cfg.Dispatcher,
		registry:   cfg.Registry,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
		timeout:    cfg.Timeout,
	}
}

// Register mounts the gateway routes on mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /signal", g.handleSignal)
	mux.HandleFunc("POST /peers/{action}", g.handlePeerAction)
}

func (g *Gateway) handleSignal(w http.ResponseWriter, r *http.Request) {
	did, ok := g.authenticate(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		g.metrics.Inc(metrics.EventBadRequest)
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	raw, err := signaling.ParseRequest(body)
	if err != nil {
		g.metrics.Inc(metrics.EventBadRequest)
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if raw.Type == "" || raw.PeerID == "" {
		g.metrics.Inc(metrics.EventBadRequest)
		writeText(w, http.StatusBadRequest, "Missing required fields: type, peerId")
		return
	}

	msg, verr := signaling.Validate(raw)
	if verr != nil {
		g.metrics.Inc(metrics.EventBadRequest)
		writeText(w, http.StatusBadRequest, verr.Error())
		return
	}

	target, err := g.lookupPeer(r.Context(), msg.PeerID)
	if err != nil {
		g.metrics.Inc(metrics.EventPeerNotFound)
		writeText(w, http.StatusNotFound, "Peer not found or not connected")
		return
	}

	deliveryID, err := g.dispatch(r.Context(), msg, target)
	if err != nil {
		g.metrics.Inc(metrics.EventDeliveryFailed)
		g.log.Error("signal delivery failed", "did", did, "target_peer_id", msg.PeerID, "err", err)
		writeText(w, http.StatusInternalServerError, "Error forwarding signaling message")
		return
	}

	g.metrics.Inc(metrics.EventDelivered)

	if msg.Type == domain.TypeOffer {
		httpserver.WriteJSON(w, http.StatusOK, map[string]any{
			"message":                 "Signaling message forwarded",
			"messageId":               deliveryID,
			"attemptDirectConnection": true,
			"iceServers":              g.dispatcher.ICEServers(),
		})
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Signaling message forwarded",
		"messageId": deliveryID,
	})
}

// authenticate runs the header and proof steps shared by every route. It
// writes the failure response itself and reports whether the caller passed.
func (g *Gateway) authenticate(w http.ResponseWriter, r *http.Request) (did string, ok bool) {
	did = r.Header.Get(headerDID)
	if did == "" {
		writeText(w, http.StatusBadRequest, "Missing X-DID header")
		return "", false
	}
	proofToken := r.Header.Get(headerProof)
	if proofToken == "" {
		writeText(w, http.StatusBadRequest, "Missing X-Subscription-Proof header")
		return "", false
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()
	if !g.verifier.Verify(ctx, did, proofToken) {
		g.metrics.Inc(metrics.EventForbidden)
		writeText(w, http.StatusForbidden, "Invalid or expired subscription proof")
		return "", false
	}
	return did, true
}

func (g *Gateway) lookupPeer(ctx context.Context, peerID string) (domain.PeerConnection, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.directory.Lookup(ctx, peerID)
}

func (g *Gateway) dispatch(ctx context.Context, msg domain.SignalingMessage, target domain.PeerConnection) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.dispatcher.Dispatch(ctx, msg, target)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
