package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sufianahinfo/sufianah-pos/internal/pos"
)

const (
	// IdleTTL is how long a checkout session may sit untouched before it
	// is discarded.
	IdleTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = time.Minute
)

var ErrSessionNotFound = errors.New("checkout session not found")

// Session is one in-flight checkout. The engine's cart is not thread-safe,
// so every cart access goes through WithCart, which holds the session lock.
type Session struct {
	ID         string
	StaffID    string
	CreatedAt  time.Time
	lastActive time.Time

	mu   sync.Mutex
	cart *pos.Cart
}

// WithCart runs fn with exclusive access to the session's cart.
func (s *Session) WithCart(fn func(c *pos.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// Store keeps one cart per in-flight checkout session. Sessions are never
// shared across checkouts; expired sessions are reaped in the background.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewStore() *Store {
	s := &Store{
		sessions:    make(map[string]*Session),
		ttl:         IdleTTL,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *Store) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) expireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastActive) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// Create opens a new checkout session owned by the given staff member.
func (s *Store) Create(staffID string) *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		StaffID:    staffID,
		CreatedAt:  now,
		lastActive: now,
		cart:       pos.NewCart(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session and refreshes its idle timer.
func (s *Store) Get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	sess.lastActive = time.Now()
	return sess, nil
}

// Delete discards a session; cancellation of a checkout is simply
// dropping the cart instance.
func (s *Store) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Close stops the background cleanup and waits for it to finish
func (s *Store) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
