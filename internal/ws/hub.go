package ws

import (
	"encoding/json"
	"sync"
)

// Client is one WebSocket subscription to an order's status stream.
type Client struct {
	OrderID string
	Send    chan []byte
	hub     *Hub
	mu      sync.Mutex
	closed  bool
}

func (c *Client) Close() {
	if c.hub != nil {
		c.hub.unregister(c)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// trySend delivers a message unless the client is closed or its buffer is
// full. The mutex orders it against Close so the channel is never written
// after it is closed.
func (c *Client) trySend(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// Hub fans order status transitions out to subscribed connections. The
// reconciler broadcasts; handlers register connections per order id.
type Hub struct {
	mu      sync.RWMutex
	byOrder map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byOrder: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byOrder[c.OrderID] == nil {
		h.byOrder[c.OrderID] = make(map[*Client]struct{})
	}
	h.byOrder[c.OrderID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byOrder[c.OrderID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byOrder, c.OrderID)
		}
	}
}

type statusEvent struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// BroadcastStatus sends a transition to every subscriber of the order.
// Slow consumers are skipped rather than blocked on.
func (h *Hub) BroadcastStatus(orderID, status string) {
	data, _ := json.Marshal(statusEvent{Type: "status", OrderID: orderID, Status: status})
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.byOrder[orderID]))
	for c := range h.byOrder[orderID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) SubscriberCount(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byOrder[orderID])
}
