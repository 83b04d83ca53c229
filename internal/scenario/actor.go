// Package scenario implements the pull-request creation iteration: pick an
// author from the team roster, post a uniquely named pull request, classify
// the response and record the outcome.
package scenario

import (
	"math/rand"
	"sync"
	"time"
)

// Actor is a team member that authors pull requests.
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

// Roster is the fixed, read-only set of actors of a run.
type Roster []Actor

// Pick returns an actor chosen uniformly at random. It panics on an empty
// roster; NewExecutor refuses one.
func (r Roster) Pick(rng *Rand) Actor {
	return r[rng.Intn(len(r))]
}

// Contains reports whether an actor with userID is in the roster.
func (r Roster) Contains(userID string) bool {
	for _, a := range r {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// Rand is a math/rand source safe for concurrent use.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand creates a source with the given seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand creates a source seeded from the clock.
func NewTimeSeededRand() *Rand {
	return NewRand(time.Now().UnixNano())
}

// Intn returns a value in [0, n).
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Intn(n)
}

// Int63n returns a value in [0, n).
func (r *Rand) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Int63n(n)
}
