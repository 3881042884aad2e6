package match

import (
	"sync"

	"github.com/udisondev/tttserver/internal/engine"
	"github.com/udisondev/tttserver/internal/svcerr"
)

// State is an Invitation's lifecycle stage.
type State int

const (
	StateOpen State = iota
	StateAccepted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateAccepted:
		return "ACCEPTED"
	default:
		return "CLOSED"
	}
}

// Invitation is the shared relationship object between two Client
// Sessions. Its guard covers its state and Game pointer; since the
// engine.Game it owns carries no lock of its own, every mutation of the
// Game also happens under this guard.
type Invitation struct {
	source, target         *ClientSession
	sourceRole, targetRole engine.Role

	mu    sync.Mutex
	state State
	game  *engine.Game
}

// NewInvitation returns a new OPEN Invitation between source and target.
// Exactly one of sourceRole/targetRole must be engine.RoleFirst, the
// other engine.RoleSecond; callers (MakeInvitation) are responsible for
// that invariant.
func NewInvitation(source, target *ClientSession, sourceRole, targetRole engine.Role) *Invitation {
	return &Invitation{
		source:     source,
		target:     target,
		sourceRole: sourceRole,
		targetRole: targetRole,
		state:      StateOpen,
	}
}

func (inv *Invitation) Source() *ClientSession { return inv.source }
func (inv *Invitation) Target() *ClientSession { return inv.target }

// RoleFor returns the role s plays in this Invitation, or engine.RoleNone
// if s is neither source nor target.
func (inv *Invitation) RoleFor(s *ClientSession) engine.Role {
	switch s {
	case inv.source:
		return inv.sourceRole
	case inv.target:
		return inv.targetRole
	default:
		return engine.RoleNone
	}
}

func (inv *Invitation) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// Accept transitions OPEN to ACCEPTED and allocates the Game. It is the
// only path that creates a Game.
func (inv *Invitation) Accept() (*engine.Game, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state != StateOpen {
		return nil, &svcerr.StateError{Reason: "invitation is not open"}
	}
	inv.game = engine.NewGame()
	inv.state = StateAccepted
	return inv.game, nil
}

// Close transitions to CLOSED. byRole must be engine.RoleNone when no
// Game exists (revoke/decline of an OPEN invitation); when a Game is in
// progress, byRole names the resigning side and the opposite role is
// recorded as winner. Close reports failure if already CLOSED, or if a
// role is given with no Game, or if none is given despite one existing.
func (inv *Invitation) Close(byRole engine.Role) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state == StateClosed {
		return &svcerr.StateError{Reason: "invitation already closed"}
	}

	switch {
	case inv.game != nil:
		if byRole == engine.RoleNone {
			return &svcerr.StateError{Reason: "resigning role required while a game is in progress"}
		}
		if !inv.game.IsOver() {
			if err := inv.game.Resign(byRole); err != nil {
				return err
			}
		}
	case byRole != engine.RoleNone:
		return &svcerr.StateError{Reason: "no game in progress to resign"}
	}

	inv.state = StateClosed
	return nil
}

// ParseMove and ApplyMove require an ACCEPTED invitation with a live
// Game; both happen under the Invitation's guard.

func (inv *Invitation) ParseMove(role engine.Role, text string) (engine.Move, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state != StateAccepted || inv.game == nil {
		return engine.Move{}, &svcerr.StateError{Reason: "no game in progress"}
	}
	return inv.game.ParseMove(role, text)
}

func (inv *Invitation) ApplyMove(m engine.Move) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state != StateAccepted || inv.game == nil {
		return &svcerr.StateError{Reason: "no game in progress"}
	}
	return inv.game.ApplyMove(m)
}

// IsOver reports whether the Invitation's Game has terminated (by win,
// draw, or resignation). It is false for an invitation with no Game.
func (inv *Invitation) IsOver() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.game != nil && inv.game.IsOver()
}

// Winner returns the Game's winner, or engine.RoleNone if there is no
// Game or it has not concluded.
func (inv *Invitation) Winner() engine.Role {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.game == nil {
		return engine.RoleNone
	}
	return inv.game.Winner()
}

// StateString renders the current board, or the empty string if no Game
// exists yet.
func (inv *Invitation) StateString() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.game == nil {
		return ""
	}
	return inv.game.UnparseState()
}
