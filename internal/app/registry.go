package app

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// codeAlphabet excludes look-alike characters for read-aloud join codes.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Registry maps join codes to live sessions. It is constructed once at
// module init and passed to every boundary that needs it; there is no
// package-level instance. Sessions own their deeper locking, the registry
// lock only guards the map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rng      *rand.Rand
	stakes   Stakes
}

// NewRegistry constructs an empty registry. rng may be nil to use a
// time-seeded default.
func NewRegistry(rng *rand.Rand, stakes Stakes) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{
		sessions: make(map[string]*Session),
		rng:      rng,
		stakes:   stakes,
	}
}

// CreateSession allocates a fresh session under a new unique join code.
func (r *Registry) CreateSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCodeLocked()
	session := NewSession(uuid.NewString(), code, rand.New(rand.NewSource(r.rng.Int63())), r.stakes)
	r.sessions[code] = session
	return session
}

// Register binds an externally constructed session (one owned by a match
// handler) to its code. Exactly one game may exist per code.
func (r *Registry) Register(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.Code]; exists {
		return ErrDuplicateCode
	}
	r.sessions[session.Code] = session
	return nil
}

// Lookup resolves a join code to its session.
func (r *Registry) Lookup(code string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[code]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove evicts a session by code.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// NewCode mints a unique join code for a session registered later.
func (r *Registry) NewCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generateCodeLocked()
}

// Sweep evicts sessions that have been idle past maxIdle and returns the
// evicted codes. Terminal sessions go after the grace period; live ones
// only once every seat is empty.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for code, session := range r.sessions {
		if session.Evictable(now, maxIdle) {
			delete(r.sessions, code)
			evicted = append(evicted, code)
		}
	}
	return evicted
}

func (r *Registry) generateCodeLocked() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[r.rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := r.sessions[code]; !taken {
			return code
		}
	}
}
