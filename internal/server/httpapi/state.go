package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// stateTTL bounds how long a login attempt may stay pending between the
// redirect to Upstox and the callback.
const stateTTL = 10 * time.Minute

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

// stateRegistry tracks one-time OAuth state nonces, binding each pending
// login to the user id it was started for. Consume is strictly one-shot so a
// replayed callback cannot reuse a state.
type stateRegistry struct {
	mu     sync.Mutex
	states map[string]stateEntry
	now    func() time.Time
}

func newStateRegistry() *stateRegistry {
	return &stateRegistry{
		states: make(map[string]stateEntry),
		now:    time.Now,
	}
}

// Issue registers a fresh nonce for userID and returns it.
func (r *stateRegistry) Issue(userID string) string {
	state := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	for s, e := range r.states {
		if r.now().After(e.expiresAt) {
			delete(r.states, s)
		}
	}
	r.states[state] = stateEntry{userID: userID, expiresAt: r.now().Add(stateTTL)}
	return state
}

// Consume removes the nonce and returns the user id it was issued for.
// Unknown, reused and expired states all report ok=false.
func (r *stateRegistry) Consume(state string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.states[state]
	if !ok {
		return "", false
	}
	delete(r.states, state)
	if r.now().After(e.expiresAt) {
		return "", false
	}
	return e.userID, true
}
