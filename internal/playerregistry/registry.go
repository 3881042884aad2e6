// Package playerregistry maintains the process-wide mapping from
// username to persistent Player. Entries are created on first login and
// never removed for the life of the process.
package playerregistry

import (
	"sync"

	"github.com/udisondev/tttserver/internal/player"
)

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	players map[string]*player.Player
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{players: make(map[string]*player.Player)}
}

// GetOrCreate returns the Player for name, creating it at the initial
// rating if this is the first time name has been seen.
func (r *Registry) GetOrCreate(name string) *player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[name]; ok {
		return p
	}
	p := player.New(name)
	r.players[name] = p
	return p
}

// Lookup returns the Player for name without creating it.
func (r *Registry) Lookup(name string) (*player.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[name]
	return p, ok
}
