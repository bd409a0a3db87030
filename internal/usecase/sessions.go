package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EditSession is one open edit screen. Its context is cancelled when the
// session is closed so that work still running for it stops touching the form.
type EditSession struct {
	ID        string
	ProductID string
	Form      *ProductForm

	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *EditSession) Context() context.Context { return s.ctx }

func (s *EditSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *EditSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionRegistry tracks open edit sessions. A session ends when it is
// closed, when its form navigates away after a save, or when it has been
// idle longer than the idle timeout at the time of a sweep.
type SessionRegistry struct {
	mu          sync.RWMutex
	sessions    map[string]*EditSession
	useCase     ProductEditUseCase
	idleTimeout time.Duration
	now         func() time.Time
	log         *logrus.Logger
}

func NewSessionRegistry(uc ProductEditUseCase, idleTimeout time.Duration, logger *logrus.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*EditSession),
		useCase:     uc,
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         logger,
	}
}

// Open registers a new session for the product and loads it. The session is
// registered even when loading fails, so its error state can be shown; the
// returned error is the product's load error.
func (r *SessionRegistry) Open(productID string) (*EditSession, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &EditSession{
		ID:        uuid.NewString(),
		ProductID: productID,
		Form:      NewProductForm(productID),
		ctx:       ctx,
		cancel:    cancel,
		lastSeen:  r.now(),
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	r.log.Infof("Session %s opened for product %s", sess.ID, productID)

	go func() {
		select {
		case <-sess.Form.Navigated():
			r.log.Infof("Session %s finished after save", sess.ID)
			r.Close(sess.ID)
		case <-ctx.Done():
		}
	}()

	err := r.useCase.Load(ctx, sess.Form)
	return sess, err
}

func (r *SessionRegistry) Get(id string) (*EditSession, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		sess.touch(r.now())
	}
	return sess, ok
}

// Close discards the session. It reports whether the session existed.
func (r *SessionRegistry) Close(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	sess.cancel()
	sess.Form.Close()
	r.log.Infof("Session %s closed", id)
	return true
}

// SweepIdle closes every session idle for longer than the idle timeout and
// returns how many were closed.
func (r *SessionRegistry) SweepIdle() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.RLock()
	var expired []string
	for id, sess := range r.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if r.Close(id) {
			closed++
		}
	}
	if closed > 0 {
		r.log.Infof("Swept %d idle edit sessions", closed)
	}
	return closed
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) CloseAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for _, id := range ids {
		r.Close(id)
	}
}
