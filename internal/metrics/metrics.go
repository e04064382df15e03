// Package metrics is a minimal, concurrency-safe counter registry for relay
// request outcomes, exposed in Prometheus text format.
package metrics

import "sync"

// Event counter names. One counter per terminal gateway state plus the peer
// lifecycle actions.
const (
	EventDelivered      = "signal_delivered"
	EventForbidden      = "signal_forbidden"
	EventBadRequest     = "signal_bad_request"
	EventPeerNotFound   = "signal_peer_not_found"
	EventDeliveryFailed = "signal_delivery_failed"
	EventPeerConnect    = "peer_connect"
	EventPeerDisconnect = "peer_disconnect"
)

// Metrics is a concurrency-safe counter registry.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Add(name string, delta uint64) {
	m.mu.Lock()
	m.m[name] += delta
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
