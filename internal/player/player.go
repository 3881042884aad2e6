// Package player holds the persistent Player record: a username and its
// Elo-style rating. Players are created once on first login and never
// destroyed for the life of the process (NON-GOALS excludes persistence
// across restarts, so "never destroyed" means "for this process' life",
// not "forever").
package player

import "sync"

// InitialRating is the rating assigned to a Player on first creation.
const InitialRating = 1500.0

// Player is shared between every Client Session currently logged in
// under its name and the Player Registry. Its rating mutates only
// through AdjustRating, which callers reach via the rating package's
// Update function, never directly.
type Player struct {
	name string

	mu     sync.Mutex
	rating float64
}

// New returns a Player with the given name at the initial rating.
func New(name string) *Player {
	return &Player{name: name, rating: InitialRating}
}

// Name returns the player's username. Names are immutable for the life
// of the Player so this needs no lock.
func (p *Player) Name() string {
	return p.name
}

// Rating returns the player's current rating.
func (p *Player) Rating() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rating
}

// AdjustRating adds delta to the player's rating under its own guard.
// Exported for the rating package; other callers should not mutate a
// Player's rating directly.
func (p *Player) AdjustRating(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rating += delta
}
