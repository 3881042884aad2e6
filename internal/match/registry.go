package match

import (
	"net"
	"sync"
	"time"

	"github.com/udisondev/tttserver/internal/player"
	"github.com/udisondev/tttserver/internal/svcerr"
)

// ClientRegistry holds every currently-connected session and enforces
// both the capacity bound and login-name uniqueness across them.
type ClientRegistry struct {
	capacity int

	mu       sync.Mutex
	cond     *sync.Cond
	sessions map[*ClientSession]struct{}
}

// NewClientRegistry returns an empty registry bounded at capacity
// concurrent sessions.
func NewClientRegistry(capacity int) *ClientRegistry {
	r := &ClientRegistry{capacity: capacity, sessions: make(map[*ClientSession]struct{})}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register admits conn as a new session, failing with a CapacityError
// if the registry is already at capacity.
func (r *ClientRegistry) Register(conn net.Conn, writeTimeout time.Duration) (*ClientSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.capacity {
		return nil, &svcerr.CapacityError{Capacity: r.capacity}
	}

	s := newClientSession(conn, writeTimeout)
	r.sessions[s] = struct{}{}
	return s, nil
}

// Unregister removes s from the registry and wakes any WaitForEmpty
// waiter if the registry has become empty.
func (r *ClientRegistry) Unregister(s *ClientSession) {
	r.mu.Lock()
	delete(r.sessions, s)
	empty := len(r.sessions) == 0
	r.mu.Unlock()

	if empty {
		r.cond.Broadcast()
	}
}

// Login atomically checks p's name against every other registered
// session's bound player and, if unused, binds p to s. The check and
// the bind happen under the same registry lock so two concurrent
// logins for the same name cannot both succeed (lock ordering:
// Registry before Session, matched by ClientSession.Login taking no
// lock of its own that outlives this call).
func (r *ClientRegistry) Login(s *ClientSession, p *player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for other := range r.sessions {
		if other == s {
			continue
		}
		if other.PlayerName() == p.Name() {
			return &svcerr.ConflictError{Name: p.Name()}
		}
	}
	return s.Login(p)
}

// Lookup finds the currently-registered session logged in under name.
func (r *ClientRegistry) Lookup(name string) (*ClientSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.sessions {
		if s.PlayerName() == name {
			return s, true
		}
	}
	return nil, false
}

// AllPlayers returns the Player bound to each currently logged-in
// session, in no particular order.
func (r *ClientRegistry) AllPlayers() []*player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*player.Player, 0, len(r.sessions))
	for s := range r.sessions {
		if p := s.Player(); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// WaitForEmpty blocks until every session has been unregistered. It is
// used by the shutdown sequence after ShutdownAll has half-closed every
// connection, to wait for each service loop to notice and exit.
func (r *ClientRegistry) WaitForEmpty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.sessions) > 0 {
		r.cond.Wait()
	}
}

// ShutdownAll half-closes the read side of every registered session's
// connection, so each service loop's blocking read unblocks with EOF
// and exits on its own, without severing writes already in flight
// (connections that are not TCP are closed outright; see HalfCloseRead).
func (r *ClientRegistry) ShutdownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.sessions {
		s.HalfCloseRead()
	}
}

// Len reports the number of currently registered sessions.
func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
