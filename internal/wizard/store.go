package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrSessionBusy     = errors.New("wizard session is processing another submit")
)

const DefaultSessionTTL = 30 * time.Minute

type session struct {
	mu       sync.Mutex
	wiz      *Wizard
	lastSeen time.Time
}

// Store holds in-flight wizard sessions in memory. Sessions are ephemeral:
// they vanish on restart or after ttl of inactivity.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	registry Registry
	log      *zap.Logger
	ttl      time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewStore(registry Registry, log *zap.Logger, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		sessions: make(map[uuid.UUID]*session),
		registry: registry,
		log:      log,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Store) Create(referrerCode string) (uuid.UUID, State) {
	id := uuid.New()
	sess := &session{
		wiz:      New(s.registry, s.log.With(zap.String("session_id", id.String())), referrerCode),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return id, sess.wiz.State()
}

func (s *Store) Get(id uuid.UUID) (State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return sess.wiz.State(), nil
}

// Submit runs one forward step. A session accepts one submit at a time; a
// second concurrent submit fails fast with ErrSessionBusy.
func (s *Store) Submit(ctx context.Context, id uuid.UUID, value string) (State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	if !sess.mu.TryLock() {
		return State{}, ErrSessionBusy
	}
	defer sess.mu.Unlock()

	err = sess.wiz.Submit(ctx, value)
	sess.lastSeen = s.now()
	return sess.wiz.State(), err
}

func (s *Store) Back(id uuid.UUID) (State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	if !sess.mu.TryLock() {
		return State{}, ErrSessionBusy
	}
	defer sess.mu.Unlock()

	err = sess.wiz.Back()
	sess.lastSeen = s.now()
	return sess.wiz.State(), err
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) lookup(id uuid.UUID) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// StartJanitor expires idle sessions every interval until Stop is called.
func (s *Store) StartJanitor(interval time.Duration) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.sweep(); n > 0 {
					s.log.Debug("expired wizard sessions", zap.Int("count", n))
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the janitor and waits for it to exit. It must only be called
// after StartJanitor.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Store) sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, sess := range s.sessions {
		// A busy session is in use, so it is not idle.
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			expired++
		}
		sess.mu.Unlock()
	}
	return expired
}
