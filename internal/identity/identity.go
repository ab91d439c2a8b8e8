// Package identity tracks which identity network calls should be made as.
// A user identity set by login always wins over the server-assigned guest
// identity.
package identity

import "sync"

// Kind classifies an identity.
type Kind int

const (
	Guest Kind = iota
	User
)

var kindNames = map[Kind]string{
	Guest: "guest",
	User:  "user",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Identity is the identifier a request is attributed to.
type Identity struct {
	Kind  Kind
	Value string
}

// Resolver holds the guest and user identifiers. It is safe for concurrent
// use: the realtime read path resolves while delivery callbacks write.
type Resolver struct {
	mu    sync.RWMutex
	guest string
	user  string
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// SetGuest records the server-assigned guest id. Empty ids are ignored.
func (r *Resolver) SetGuest(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guest = id
}

// SetUser records the logged-in user id. The guest id is kept.
func (r *Resolver) SetUser(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = id
}

// Resolve returns the user identity if set, else the guest identity.
func (r *Resolver) Resolve() (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.user != "":
		return Identity{Kind: User, Value: r.user}, true
	case r.guest != "":
		return Identity{Kind: Guest, Value: r.guest}, true
	default:
		return Identity{}, false
	}
}

// Guest returns the stored guest id, which may be shadowed by a user id.
func (r *Resolver) Guest() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.guest
}
