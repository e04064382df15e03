// Package directory resolves and manages peer connection records. The relay
// consumes the read side (Lookup); the write side mirrors the external
// connect/disconnect lifecycle so peers can register with this process.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/peermesh/signal-relay/internal/domain"
)

// Store is the peer directory persistence contract.
type Store interface {
	GetPeer(ctx context.Context, peerID string) (domain.PeerConnection, error)
	FindPeerByDID(ctx context.Context, did string) (domain.PeerConnection, error)
	PutPeer(ctx context.Context, p domain.PeerConnection) error
	TouchPeer(ctx context.Context, peerID string, connectedAt int64) error
	DeletePeer(ctx context.Context, peerID string) error
}

// Directory is the read-side client used by the relay pipeline.
type Directory struct {
	store Store
	log   *slog.Logger
	ttl   time.Duration
	now   func() time.Time
}

func New(store Store, logger *slog.Logger, ttl time.Duration) *Directory {
	return &Directory{
		store: store,
		log:   logger,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Lookup resolves a peer id to its current connection record. Exactly one
// store read per call, no retry. An absent record, a record whose status is
// not connected, a record older than the TTL, and a store failure all
// collapse to [domain.ErrPeerNotFound]: from the relay's perspective the peer
// is simply not reachable.
func (d *Directory) Lookup(ctx context.Context, peerID string) (domain.PeerConnection, error) {
	rec, err := d.store.GetPeer(ctx, peerID)
	if err != nil {
		if !errors.Is(err, domain.ErrPeerNotFound) {
			d.log.Warn("peer lookup failed", "peer_id", peerID, "err", err)
		}
		return domain.PeerConnection{}, domain.ErrPeerNotFound
	}
	if rec.Status != domain.PeerStatusConnected {
		return domain.PeerConnection{}, domain.ErrPeerNotFound
	}
	if d.ttl > 0 && d.now().UnixMilli()-rec.ConnectedAt > d.ttl.Milliseconds() {
		return domain.PeerConnection{}, domain.ErrPeerNotFound
	}
	return rec, nil
}
