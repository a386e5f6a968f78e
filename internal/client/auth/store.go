package auth

import "sync"

// stateStore holds the current State and fans snapshots out to subscribers.
// Each subscriber channel has a buffer of one and always holds the newest
// snapshot it has not read yet.
type stateStore struct {
	mu     sync.Mutex
	cur    State
	subs   map[uint64]chan State
	nextID uint64
	closed bool
}

func newStateStore(initial State) *stateStore {
	return &stateStore{cur: initial, subs: make(map[uint64]chan State)}
}

func (s *stateStore) get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// update applies fn to a copy of the current state and publishes it.
// It reports false once the store is closed.
func (s *stateStore) update(fn func(*State)) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.cur, false
	}

	next := s.cur
	fn(&next)
	next.Version = s.cur.Version + 1
	s.cur = next

	for _, ch := range s.subs {
		offer(ch, next)
	}
	return next, true
}

func offer(ch chan State, st State) {
	select {
	case ch <- st:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (s *stateStore) subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	if s.closed {
		ch <- s.cur
		close(ch)
		return ch, func() {}
	}

	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	ch <- s.cur

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// close stops publishing and closes every subscriber channel.
func (s *stateStore) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
