// Package session holds the signed-in user's token and profile and notifies
// subscribers whenever they change.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// RoleAdmin is the user role allowed into the admin area.
const RoleAdmin = "admin"

// Event is broadcast on every login and logout.
type Event struct {
	Authenticated bool
	User          *models.User
}

// Store is the single source of authentication state. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	current models.Session
	subs    map[int]chan Event
	nextSub int
	logger  *utils.Logger
}

// NewStore loads the persisted session from backend.
func NewStore(backend Backend, logger *utils.Logger) (*Store, error) {
	s, err := backend.Load()
	if err != nil {
		return nil, err
	}
	return &Store{
		backend: backend,
		current: s,
		subs:    make(map[int]chan Event),
		logger:  logger,
	}, nil
}

// Login persists token and user and notifies subscribers.
func (s *Store) Login(token string, user *models.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("session: empty token")
	}

	next := models.Session{Token: token, User: copyUser(user)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(next); err != nil {
		return err
	}
	s.current = next
	s.broadcast()

	s.logger.Info("signed in", "user_id", userID(next.User))
	return nil
}

// Logout forgets the session and notifies subscribers.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Clear(); err != nil {
		return err
	}
	s.current = models.Session{}
	s.broadcast()

	s.logger.Info("signed out")
	return nil
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.current.User)
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token != "" && s.current.User != nil && s.current.User.Role == RoleAdmin
}

// Subscribe returns a channel receiving an Event after every change. Slow
// subscribers only see the latest event. The channel is closed when ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// broadcast must be called with s.mu held for writing.
func (s *Store) broadcast() {
	ev := Event{Authenticated: s.current.Token != "", User: copyUser(s.current.User)}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// replace the stale undelivered event
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func userID(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
