// Package proof verifies subscription proofs against the proof store.
package proof

import (
	"context"
	"log/slog"
	"time"

	"github.com/peermesh/signal-relay/internal/domain"
)

// Store is the proof store contract the verifier consumes.
type Store interface {
	GetProof(ctx context.Context, did, proof string) (domain.SubscriptionProof, error)
}

// Verifier checks a caller-supplied DID/proof pair against the store and the
// expiry policy. It holds no per-request state and is safe for concurrent use.
type Verifier struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewVerifier(store Store, logger *slog.Logger) *Verifier {
	return &Verifier{
		store: store,
		log:   logger,
		now:   time.Now,
	}
}

// Verify reports whether the (did, proof) pair names an unexpired proof
// record. Every store failure, including not-found, collapses to false: the
// caller only ever learns "unauthorized", never store-internal detail. Expiry
// is evaluated at call time, never cached, and a successful verification does
// not consume the proof.
func (v *Verifier) Verify(ctx context.Context, did, proof string) bool {
	rec, err := v.store.GetProof(ctx, did, proof)
	if err != nil {
		v.log.Debug("proof lookup failed", "did", did, "err", err)
		return false
	}
	return v.now().UnixMilli() < rec.ExpiresAt
}
