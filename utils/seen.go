package utils

import "sync"

// Seen remembers the keys recorded most recently. Once limit keys are held,
// recording a new key forgets the oldest one. A non-positive limit keeps
// every key. Safe for concurrent use.
type Seen[K comparable] struct {
	mu    sync.Mutex
	limit int
	keys  map[K]struct{}
	ring  []K
	next  int
}

func NewSeen[K comparable](limit int) *Seen[K] {
	return &Seen[K]{limit: limit, keys: make(map[K]struct{})}
}

// Record reports whether k was not already remembered.
func (s *Seen[K]) Record(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}

	switch {
	case s.limit <= 0:
	case len(s.ring) < s.limit:
		s.ring = append(s.ring, k)
	default:
		delete(s.keys, s.ring[s.next])
		s.ring[s.next] = k
		s.next = (s.next + 1) % s.limit
	}
	return true
}

func (s *Seen[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
