package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/peermesh/signal-relay/internal/domain"
)

const peerColumns = "peer_id, did, connection_id, endpoint, status, connected_at"

// GetPeer fetches a peer directory record by peer id. Absence maps to
// [domain.ErrPeerNotFound]; status and staleness are judged by the caller.
func (s *Store) GetPeer(ctx context.Context, peerID string) (domain.PeerConnection, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE peer_id = ?`, peerColumns, s.peersTable)
	return s.scanPeer(s.db.QueryRowContext(ctx, query, peerID))
}

// FindPeerByDID returns the active connection record registered by a DID, if
// any. Each DID holds at most one connection at a time.
func (s *Store) FindPeerByDID(ctx context.Context, did string) (domain.PeerConnection, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE did = ?`, peerColumns, s.peersTable)
	return s.scanPeer(s.db.QueryRowContext(ctx, query, did))
}

// PutPeer inserts or replaces a peer connection record.
func (s *Store) PutPeer(ctx context.Context, p domain.PeerConnection) error {
	query := fmt.Sprintf(`
INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (peer_id) DO UPDATE SET
	did = excluded.did,
	connection_id = excluded.connection_id,
	endpoint = excluded.endpoint,
	status = excluded.status,
	connected_at = excluded.connected_at`, s.peersTable, peerColumns)

	_, err := s.db.ExecContext(ctx, query, p.PeerID, p.DID, p.ConnectionID, p.Endpoint, p.Status, p.ConnectedAt)
	return err
}

// TouchPeer refreshes the connected-at timestamp of an existing record.
func (s *Store) TouchPeer(ctx context.Context, peerID string, connectedAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET connected_at = ? WHERE peer_id = ?`, s.peersTable)
	res, err := s.db.ExecContext(ctx, query, connectedAt, peerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPeerNotFound
	}
	return nil
}

// DeletePeer removes a peer connection record.
func (s *Store) DeletePeer(ctx context.Context, peerID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE peer_id = ?`, s.peersTable)
	_, err := s.db.ExecContext(ctx, query, peerID)
	return err
}

func (s *Store) scanPeer(row *sql.Row) (domain.PeerConnection, error) {
	var p domain.PeerConnection
	err := row.Scan(&p.PeerID, &p.DID, &p.ConnectionID, &p.Endpoint, &p.Status, &p.ConnectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PeerConnection{}, domain.ErrPeerNotFound
	}
	if err != nil {
		return domain.PeerConnection{}, err
	}
	return p, nil
}
