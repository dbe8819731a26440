// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// CartItemAddedQueue is the durable queue cart events are routed to.
const CartItemAddedQueue = "cart.item_added"

// CartItemAddedEvent is published after a cart item has been stored.  It
// carries enough of the item for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type CartItemAddedEvent struct {
	CartID     string  `json:"cart_id"`
	Email      string  `json:"email"`
	MenuItemID string  `json:"menu_item_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Price      float64 `json:"price,omitempty"`
	AddedAt    string  `json:"added_at"`
}
