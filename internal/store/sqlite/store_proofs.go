package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/peermesh/signal-relay/internal/domain"
)

// GetProof fetches a subscription proof keyed by the (did, proof) pair. A
// given DID may hold several valid proofs concurrently, e.g. across renewal.
func (s *Store) GetProof(ctx context.Context, did, proof string) (domain.SubscriptionProof, error) {
	query := fmt.Sprintf(`SELECT did, proof, expires_at FROM %s WHERE did = ? AND proof = ?`, s.proofsTable)

	var p domain.SubscriptionProof
	err := s.db.QueryRowContext(ctx, query, did, proof).Scan(&p.DID, &p.Proof, &p.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SubscriptionProof{}, domain.ErrProofNotFound
	}
	if err != nil {
		return domain.SubscriptionProof{}, err
	}
	return p, nil
}

// PutProof inserts or replaces a proof record. The relay itself never writes
// proofs; this exists for issuance tooling and tests.
func (s *Store) PutProof(ctx context.Context, p domain.SubscriptionProof) error {
	query := fmt.Sprintf(`
INSERT INTO %s (did, proof, expires_at) VALUES (?, ?, ?)
ON CONFLICT (did, proof) DO UPDATE SET expires_at = excluded.expires_at`, s.proofsTable)

	_, err := s.db.ExecContext(ctx, query, p.DID, p.Proof, p.ExpiresAt)
	return err
}
