package payroll

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a parsed upload waiting for confirmation.
type Session struct {
	Token     string
	OwnerID   string
	Year      int
	Month     int
	FileName  string
	Records   []ParsedRecord
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) record(rowNumber int) (ParsedRecord, bool) {
	for _, rec := range s.Records {
		if rec.RowNumber == rowNumber {
			return rec, true
		}
	}
	return ParsedRecord{}, false
}

// SessionStore holds upload sessions in process memory under opaque tokens.
// Sessions expire after ttl and are dropped on Take, Delete or Sweep.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{ttl: ttl, now: time.Now, sessions: map[string]Session{}}
}

// Put stores sess under a fresh token and returns it with token and expiry set.
func (s *SessionStore) Put(sess Session) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess.Token = uuid.NewString()
	sess.CreatedAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	s.sessions[sess.Token] = sess
	return sess
}

func (s *SessionStore) Get(token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(token)
}

// Take removes and returns the session if authorize accepts it. Exactly one
// concurrent caller can take a given token.
func (s *SessionStore) Take(token string, authorize func(Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.liveLocked(token)
	if err != nil {
		return Session{}, err
	}
	if authorize != nil {
		if err := authorize(sess); err != nil {
			return Session{}, err
		}
	}
	delete(s.sessions, token)
	return sess, nil
}

func (s *SessionStore) Delete(token string, authorize func(Session) error) error {
	_, err := s.Take(token, authorize)
	return err
}

func (s *SessionStore) liveLocked(token string) (Session, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrSessionExpired
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
