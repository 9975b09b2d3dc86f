package relay

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hanspeterhess/show-time-aws-V1/internal/logging"
)

// ErrNoWorker is returned by SendToWorker when no connection currently holds
// the worker slot. Jobs hitting this error are dropped by the caller.
var ErrNoWorker = errors.New("no worker registered")

// Notifier is the narrow surface the relay service needs from the hub.
type Notifier interface {
	// Broadcast fans a message out to every connected peer.
	Broadcast(msg Message)
	// SendToWorker delivers a message to the registered worker only.
	SendToWorker(msg Message) error
}

// Hub maintains the set of connected peers, fans out broadcasts, and owns the
// single worker slot. The slot is an explicit, mutex-guarded registration:
// a later identify replaces the holder (last writer wins), and a disconnect
// clears it only if the disconnecting peer is the current holder.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	broadcast chan Message

	mu      sync.RWMutex
	clients map[*Client]bool
	worker  *Client
}

var _ Notifier = (*Hub)(nil)

// NewHub creates a hub with no connected peers and an empty worker slot.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		clients:    make(map[*Client]bool),
	}
}

// Run processes lifecycle events and broadcasts until ctx is canceled, then
// closes all connected peers and returns ctx.Err(). Designed to run in its
// own goroutine for the life of the process.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			logging.Info().Str("component", "relay-hub").Msg("hub stopped")
			return ctx.Err()

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logging.Info().Int("total_clients", total).Msg("peer connected")

		case client := <-h.Unregister:
			h.ClearIfCurrent(client)
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.done)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logging.Info().Int("total_clients", total).Msg("peer disconnected")

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Broadcast queues a message for delivery to all connected peers.
func (h *Hub) Broadcast(msg Message) {
	h.broadcast <- msg
}

// SendToWorker delivers a message to the current worker slot holder.
// The slot is read once at send time: a replacement between job receipt and
// dispatch means the newest worker gets the job. A send channel is never
// closed (shutdown is signaled through the client's done channel), so a send
// racing a disconnect lands in a buffer nobody drains and the job is dropped,
// never a panic.
func (h *Hub) SendToWorker(msg Message) error {
	h.mu.RLock()
	w := h.worker
	h.mu.RUnlock()

	if w == nil {
		return ErrNoWorker
	}
	select {
	case w.send <- msg:
		return nil
	default:
		return errors.New("worker send buffer full")
	}
}

// SetWorker places c in the worker slot, replacing any previous holder.
// The replaced connection is not closed; it simply stops being targeted.
func (h *Hub) SetWorker(c *Client) {
	h.mu.Lock()
	prev := h.worker
	h.worker = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		logging.Warn().
			Uint64("previous_id", prev.ID()).
			Uint64("worker_id", c.ID()).
			Msg("worker registration replaced")
		return
	}
	logging.Info().Uint64("worker_id", c.ID()).Msg("worker registered")
}

// ClearIfCurrent empties the worker slot if c is the current holder and
// reports whether it did.
func (h *Hub) ClearIfCurrent(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.worker != c {
		return false
	}
	h.worker = nil
	return true
}

// HasWorker reports whether the worker slot is held.
func (h *Hub) HasWorker() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.worker != nil
}

// ClientCount returns the number of connected peers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// fanOut delivers a message to every connected peer in client-ID order.
// Peers with a full send buffer are dropped.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			close(c.done)
			delete(h.clients, c)
			if h.worker == c {
				h.worker = nil
			}
			logging.Warn().Uint64("client_id", c.ID()).Msg("dropping slow peer")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.done)
		delete(h.clients, c)
	}
	h.worker = nil
}
