package ws

import "sync"

// Hub keeps one room per auction id. Clients only ever receive: bids enter
// through the HTTP API, the hub just fans settlement events out to whoever
// is watching the auction.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub() *Hub { return &Hub{rooms: map[string]*room{}} }

// Broadcast is called by the Redis event subscriber for every settlement
// event on the auction's channel. No room, no watchers, nothing to do.
func (h *Hub) Broadcast(auctionID string, msg []byte) {
	h.mu.Lock()
	r := h.rooms[auctionID]
	h.mu.Unlock()
	if r != nil {
		r.broadcast(msg)
	}
}

func (h *Hub) Join(auctionID string, s subscriber) {
	h.mu.Lock()
	r := h.rooms[auctionID]
	if r == nil {
		r = newRoom()
		h.rooms[auctionID] = r
	}
	h.mu.Unlock()
	r.add(s)
}

// Leave detaches the subscriber and reaps the room once its last watcher
// is gone, so finished auctions do not pin memory.
func (h *Hub) Leave(auctionID string, s subscriber) {
	h.mu.Lock()
	r := h.rooms[auctionID]
	h.mu.Unlock()
	if r == nil {
		return
	}
	if r.remove(s) {
		h.mu.Lock()
		delete(h.rooms, auctionID)
		h.mu.Unlock()
	}
}
