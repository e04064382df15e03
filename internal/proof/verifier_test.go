package proof

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/peermesh/signal-relay/internal/domain"
)

type fakeStore struct {
	records map[string]domain.SubscriptionProof
	err     error
	calls   int
}

func (f *fakeStore) GetProof(ctx context.Context, did, proof string) (domain.SubscriptionProof, error) {
	f.calls++
	if f.err != nil {
		return domain.SubscriptionProof{}, f.err
	}
	rec, ok := f.records[did+"|"+proof]
	if !ok {
		return domain.SubscriptionProof{}, domain.ErrProofNotFound
	}
	return rec, nil
}

func newTestVerifier(store Store, now time.Time) *Verifier {
	v := NewVerifier(store, slog.New(slog.NewTextHandler(discard{}, nil)))
	v.now = func() time.Time { return now }
	return v
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestVerify(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)

	cases := []struct {
		name  string
		store *fakeStore
		did   string
		proof string
		want  bool
	}{
		{
			name:  "no record",
			store: &fakeStore{},
			did:   "did:example:1",
			proof: "p1",
			want:  false,
		},
		{
			name: "valid proof",
			store: &fakeStore{records: map[string]domain.SubscriptionProof{
				"did:example:2|p2": {DID: "did:example:2", Proof: "p2", ExpiresAt: now.UnixMilli() + 60000},
			}},
			did:   "did:example:2",
			proof: "p2",
			want:  true,
		},
		{
			name: "expired proof",
			store: &fakeStore{records: map[string]domain.SubscriptionProof{
				"did:example:3|p3": {DID: "did:example:3", Proof: "p3", ExpiresAt: now.UnixMilli() - 1},
			}},
			did:   "did:example:3",
			proof: "p3",
			want:  false,
		},
		{
			name: "expiry boundary is exclusive",
			store: &fakeStore{records: map[string]domain.SubscriptionProof{
				"did:example:4|p4": {DID: "did:example:4", Proof: "p4", ExpiresAt: now.UnixMilli()},
			}},
			did:   "did:example:4",
			proof: "p4",
			want:  false,
		},
		{
			name:  "store error fails closed",
			store: &fakeStore{err: errors.New("store unreachable")},
			did:   "did:example:5",
			proof: "p5",
			want:  false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := newTestVerifier(tc.store, now)
			if got := v.Verify(context.Background(), tc.did, tc.proof); got != tc.want {
				t.Fatalf("Verify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerify_DoesNotConsumeProof(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)
	store := &fakeStore{records: map[string]domain.SubscriptionProof{
		"did:example:6|p6": {DID: "did:example:6", Proof: "p6", ExpiresAt: now.UnixMilli() + 60000},
	}}
	v := newTestVerifier(store, now)

	for i := 0; i < 3; i++ {
		if !v.Verify(context.Background(), "did:example:6", "p6") {
			t.Fatalf("verification %d failed", i)
		}
	}
	if store.calls != 3 {
		t.Fatalf("expected a fresh store lookup per call, got %d", store.calls)
	}
}
