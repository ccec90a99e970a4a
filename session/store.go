package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/logger"
	"go.uber.org/zap"
)

// ErrPartialSession is returned by Set when the token or the user is missing.
var ErrPartialSession = errors.New("session: token and user must be set together")

// Store is the single owner of the current session.
type Store struct {
	storage domain.SessionStorage

	// writeMu serializes Set and Clear; mu only guards current so that Get
	// never waits on storage I/O.
	writeMu sync.Mutex
	mu      sync.RWMutex
	current Session
}

// NewStore loads the persisted session once. A partial or unreadable record
// is discarded.
func NewStore(ctx context.Context, storage domain.SessionStorage) (*Store, error) {
	s := &Store{storage: storage}

	rec, err := storage.Load(ctx)
	if errors.Is(err, domain.ErrNoSession) {
		return s, nil
	}
	if err != nil {
		logger.Log.Warn("discarding unreadable session", zap.Error(err))
		return s, s.discard(ctx)
	}

	sess, err := decode(rec)
	if err != nil {
		logger.Log.Warn("discarding stored session", zap.Error(err))
		return s, s.discard(ctx)
	}

	s.current = sess
	return s, nil
}

// Get returns a copy of the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Set persists and installs sess. On a storage failure the previous session
// stays in place.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if !sess.Valid() {
		return ErrPartialSession
	}

	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Save(ctx, &domain.SessionRecord{Token: sess.Token, User: user}); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	s.mu.Lock()
	s.current = sess.clone()
	s.mu.Unlock()
	return nil
}

// Clear drops the session from memory and storage. Memory is always cleared,
// even when the storage delete fails. Calling Clear on an empty store is a
// no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = Session{}
	s.mu.Unlock()

	if err := s.storage.Delete(ctx); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Storage exposes the backend, e.g. for health checks.
func (s *Store) Storage() domain.SessionStorage { return s.storage }

func (s *Store) discard(ctx context.Context) error {
	if err := s.storage.Delete(ctx); err != nil {
		return fmt.Errorf("session: discard: %w", err)
	}
	return nil
}

func decode(rec *domain.SessionRecord) (Session, error) {
	if !rec.Complete() {
		return Session{}, ErrPartialSession
	}
	var user domain.User
	if err := json.Unmarshal(rec.User, &user); err != nil {
		return Session{}, fmt.Errorf("session: decode user: %w", err)
	}
	return Session{Token: rec.Token, User: &user}, nil
}
