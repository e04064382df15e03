// Package delivery submits relay envelopes to the delivery channel, the
// at-least-once transport that carries messages to the target peer's session.
// The relay makes a single submission attempt per request; durability and
// redelivery are the channel's job downstream of this boundary.
package delivery

import "context"

// Channel accepts a serialized envelope and returns the channel-assigned
// delivery identifier.
type Channel interface {
	Submit(ctx context.Context, payload []byte) (deliveryID string, err error)
}
