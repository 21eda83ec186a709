package store

import "sync"

// hub fans committed events out to subscribers. Each subscriber owns an
// unbounded queue drained by its own pump goroutine, so delivery never blocks
// the committing writer; a slow callback only backs up its own queue.
type hub struct {
	mu     sync.Mutex
	seq    uint64
	nextID uint64
	subs   map[uint64]*subscriber
}

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	done   chan struct{}
	fn     func(Event)
}

func newHub() *hub {
	return &hub{subs: make(map[uint64]*subscriber)}
}

// publish assigns the global commit sequence and enqueues the event for every
// registered subscriber. Callers serialize commits, so events reach each
// queue in commit order.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	h.seq++
	ev.Seq = h.seq
	for _, s := range h.subs {
		s.enqueue(ev)
	}
	h.mu.Unlock()
}

// Subscribe registers fn to receive every event committed from now on.
func (h *hub) Subscribe(fn func(Event)) *Subscription {
	s := &subscriber{
		done: make(chan struct{}),
		fn:   fn,
	}
	s.cond = sync.NewCond(&s.mu)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = s
	h.mu.Unlock()

	go s.pump()
	return &Subscription{id: id, sub: s, hub: h}
}

// Unsubscribe deregisters the listener and waits for any in-flight callback
// to finish. Events still queued are dropped. Because of the wait, calling
// Unsubscribe from inside the subscription's own callback deadlocks.
func (h *hub) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.hub != h {
		return
	}
	h.mu.Lock()
	delete(h.subs, sub.id)
	h.mu.Unlock()

	s := sub.sub
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cond.Signal()
	}
	s.mu.Unlock()
	<-s.done
}

func (s *subscriber) enqueue(ev Event) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, ev)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) pump() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(ev)
	}
}
