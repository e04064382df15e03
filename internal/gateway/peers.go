package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/peermesh/signal-relay/internal/domain"
	"github.com/peermesh/signal-relay/internal/httpserver"
	"github.com/peermesh/signal-relay/internal/metrics"
)

// handlePeerAction serves the connect/disconnect/status lifecycle for the
// caller's own peer connection. The same proof gate as /signal applies.
func (g *Gateway) handlePeerAction(w http.ResponseWriter, r *http.Request) {
	did, ok := g.authenticate(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	switch action := r.PathValue("action"); action {
	case "connect":
		g.handleConnect(ctx, w, r, did)
	case "disconnect":
		g.handleDisconnect(ctx, w, did)
	case "status":
		g.handleStatus(ctx, w, did)
	default:
		writeText(w, http.StatusBadRequest, "Invalid action: "+action)
	}
}

func (g *Gateway) handleConnect(ctx context.Context, w http.ResponseWriter, r *http.Request, did string) {
	res, err := g.registry.Connect(ctx, did, remoteHost(r))
	if err != nil {
		g.log.Error("peer connect failed", "did", did, "err", err)
		writeText(w, http.StatusInternalServerError, "Error connecting peer")
		return
	}
	g.metrics.Inc(metrics.EventPeerConnect)

	status := "connected"
	if res.Reconnected {
		status = "reconnected"
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]string{
		"peerId": res.PeerID,
		"status": status,
	})
}

func (g *Gateway) handleDisconnect(ctx context.Context, w http.ResponseWriter, did string) {
	err := g.registry.Disconnect(ctx, did)
	if errors.Is(err, domain.ErrNoActiveConnection) {
		writeText(w, http.StatusNotFound, "No active connection found for this DID")
		return
	}
	if err != nil {
		g.log.Error("peer disconnect failed", "did", did, "err", err)
		writeText(w, http.StatusInternalServerError, "Error disconnecting peer")
		return
	}
	g.metrics.Inc(metrics.EventPeerDisconnect)
	writeText(w, http.StatusOK, "Peer disconnected successfully")
}

func (g *Gateway) handleStatus(ctx context.Context, w http.ResponseWriter, did string) {
	rec, err := g.registry.Status(ctx, did)
	if errors.Is(err, domain.ErrNoActiveConnection) {
		writeText(w, http.StatusNotFound, "No active connection found for this DID")
		return
	}
	if err != nil {
		g.log.Error("peer status failed", "did", did, "err", err)
		writeText(w, http.StatusInternalServerError, "Error fetching peer status")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"peerId":      rec.PeerID,
		"status":      rec.Status,
		"endpoint":    rec.Endpoint,
		"connectedAt": rec.ConnectedAt,
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
