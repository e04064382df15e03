package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/peermesh/signal-relay/internal/domain"
)

// Registry handles the peer connection lifecycle: connect, disconnect, and
// status. Each DID holds at most one connection record at a time.
type Registry struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewRegistry(store Store, logger *slog.Logger) *Registry {
	return &Registry{
		store: store,
		log:   logger,
		now:   time.Now,
	}
}

// ConnectResult reports the record a connect call resolved to and whether an
// existing registration was reused.
type ConnectResult struct {
	PeerID      string
	Reconnected bool
}

// Connect registers the caller as a connected peer. If the DID already has a
// record, its connected-at timestamp is refreshed and the existing peer id is
// returned instead of allocating a new one.
func (r *Registry) Connect(ctx context.Context, did, endpoint string) (ConnectResult, error) {
	existing, err := r.store.FindPeerByDID(ctx, did)
	if err == nil {
		if err := r.store.TouchPeer(ctx, existing.PeerID, r.now().UnixMilli()); err != nil {
			return ConnectResult{}, fmt.Errorf("refresh connection: %w", err)
		}
		return ConnectResult{PeerID: existing.PeerID, Reconnected: true}, nil
	}
	if !errors.Is(err, domain.ErrPeerNotFound) {
		return ConnectResult{}, fmt.Errorf("find connection: %w", err)
	}

	rec := domain.PeerConnection{
		PeerID:       uuid.NewString(),
		DID:          did,
		ConnectionID: uuid.NewString(),
		Endpoint:     endpoint,
		Status:       domain.PeerStatusConnected,
		ConnectedAt:  r.now().UnixMilli(),
	}
	if err := r.store.PutPeer(ctx, rec); err != nil {
		return ConnectResult{}, fmt.Errorf("register connection: %w", err)
	}
	r.log.Info("peer connected", "did", did, "peer_id", rec.PeerID)
	return ConnectResult{PeerID: rec.PeerID}, nil
}

// Disconnect removes the caller's connection record.
func (r *Registry) Disconnect(ctx context.Context, did string) error {
	existing, err := r.store.FindPeerByDID(ctx, did)
	if errors.Is(err, domain.ErrPeerNotFound) {
		return domain.ErrNoActiveConnection
	}
	if err != nil {
		return fmt.Errorf("find connection: %w", err)
	}
	if err := r.store.DeletePeer(ctx, existing.PeerID); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	r.log.Info("peer disconnected", "did", did, "peer_id", existing.PeerID)
	return nil
}

// Status returns the caller's current connection record.
func (r *Registry) Status(ctx context.Context, did string) (domain.PeerConnection, error) {
	rec, err := r.store.FindPeerByDID(ctx, did)
	if errors.Is(err, domain.ErrPeerNotFound) {
		return domain.PeerConnection{}, domain.ErrNoActiveConnection
	}
	if err != nil {
		return domain.PeerConnection{}, fmt.Errorf("find connection: %w", err)
	}
	return rec, nil
}
