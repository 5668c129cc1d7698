package ws

import "sync"

// subscriber is one attached watcher of an auction. A send failure means
// the peer is gone; the room drops and closes it.
type subscriber interface {
	send(msg []byte) error
	close()
}

// room is the subscriber set of a single auction.
type room struct {
	mu   sync.RWMutex
	subs map[subscriber]struct{}
}

func newRoom() *room { return &room{subs: map[subscriber]struct{}{}} }

func (r *room) add(s subscriber) {
	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()
}

// remove detaches the subscriber and reports whether the room is now
// empty, so the hub can reap it.
func (r *room) remove(s subscriber) bool {
	r.mu.Lock()
	delete(r.subs, s)
	n := len(r.subs)
	r.mu.Unlock()
	s.close()
	return n == 0
}

// broadcast delivers one settlement event to every subscriber. Snapshot
// the set first, do the I/O outside the lock; dead subscribers are dropped.
func (r *room) broadcast(msg []byte) {
	r.mu.RLock()
	subs := make([]subscriber, 0, len(r.subs))
	for s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	for _, s := range subs {
		if err := s.send(msg); err != nil {
			r.remove(s)
		}
	}
}
