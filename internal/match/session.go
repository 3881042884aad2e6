// Package match implements the session and coordination layer: Client
// Sessions, the shared Invitation objects between them, the Client
// Registry, and the service loop that drives one goroutine per
// connection.
package match

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/tttserver/internal/engine"
	"github.com/udisondev/tttserver/internal/player"
	"github.com/udisondev/tttserver/internal/rating"
	"github.com/udisondev/tttserver/internal/svcerr"
	"github.com/udisondev/tttserver/internal/wire"
)

// localHandle is a session's own view of a shared Invitation: the
// invitation plus the small non-negative integer ID this session
// assigned it.
type localHandle struct {
	id  int
	inv *Invitation
}

// ClientSession is the per-connection object. Its single guard covers
// the logged-in flag, the bound Player, the local invitation list, and
// serialisation of outbound writes, so no two goroutines can interleave
// bytes into the same socket.
type ClientSession struct {
	conn         net.Conn
	writeTimeout time.Duration

	mu          sync.Mutex
	loggedIn    bool
	player      *player.Player
	invitations []*localHandle
}

func newClientSession(conn net.Conn, writeTimeout time.Duration) *ClientSession {
	return &ClientSession{conn: conn, writeTimeout: writeTimeout}
}

// Conn returns the underlying connection, for read-loop use by the
// service loop.
func (s *ClientSession) Conn() net.Conn { return s.conn }

func (s *ClientSession) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *ClientSession) Player() *player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// PlayerName returns the bound player's name, or "" if not logged in.
func (s *ClientSession) PlayerName() string {
	p := s.Player()
	if p == nil {
		return ""
	}
	return p.Name()
}

// Login binds p to this session, failing if already logged in.
// Uniqueness of the name across sessions is the Client Registry's
// responsibility (Registry.Login), not this method's.
func (s *ClientSession) Login(p *player.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loggedIn {
		return &svcerr.ProtocolError{Reason: "already logged in"}
	}
	s.loggedIn = true
	s.player = p
	return nil
}

// Logout cascades: for every handle still on this session's list, if its
// Invitation has a Game it is resigned through this session, otherwise
// this session revokes it (if source) or declines it (if target). It is
// a no-op on a session that was never logged in.
func (s *ClientSession) Logout() {
	s.mu.Lock()
	loggedIn := s.loggedIn
	s.loggedIn = false
	s.mu.Unlock()

	if !loggedIn {
		return
	}

	for _, h := range s.snapshotInvitations() {
		switch {
		case h.inv.IsOver() || h.inv.State() == StateAccepted:
			if err := s.Resign(h.id); err != nil {
				slog.Debug("logout resign failed", "id", h.id, "error", err)
			}
		case h.inv.Source() == s:
			if err := s.Revoke(h.id); err != nil {
				slog.Debug("logout revoke failed", "id", h.id, "error", err)
			}
		default:
			if err := s.Decline(h.id); err != nil {
				slog.Debug("logout decline failed", "id", h.id, "error", err)
			}
		}
	}

	// The Player reference is released only after the cascade above has
	// run, since resign (via rating.Update) still needs Player() to
	// resolve for this session (spec: "Releases the Player reference"
	// is the last step of logout).
	s.mu.Lock()
	s.player = nil
	s.mu.Unlock()
}

func (s *ClientSession) snapshotInvitations() []*localHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*localHandle, len(s.invitations))
	copy(cp, s.invitations)
	return cp
}

// addInvitation assigns inv the smallest locally-unused non-negative
// integer ID and appends it to this session's list.
func (s *ClientSession) addInvitation(inv *Invitation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[int]bool, len(s.invitations))
	for _, h := range s.invitations {
		used[h.id] = true
	}
	id := 0
	for used[id] {
		id++
	}
	s.invitations = append(s.invitations, &localHandle{id: id, inv: inv})
	return id
}

// removeInvitation removes inv from this session's list, returning the
// ID it held and whether it was found.
func (s *ClientSession) removeInvitation(inv *Invitation) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, h := range s.invitations {
		if h.inv == inv {
			id := h.id
			s.invitations = append(s.invitations[:i], s.invitations[i+1:]...)
			return id, true
		}
	}
	return 0, false
}

// findInvitation looks up an Invitation by this session's local ID.
func (s *ClientSession) findInvitation(id int) (*Invitation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.invitations {
		if h.id == id {
			return h.inv, true
		}
	}
	return nil, false
}

// localIDFor is the reverse of findInvitation: the ID this session
// assigned to inv, if inv is on its list.
func (s *ClientSession) localIDFor(inv *Invitation) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.invitations {
		if h.inv == inv {
			return h.id, true
		}
	}
	return 0, false
}

// MakeInvitation creates an OPEN Invitation from this session (source)
// to target, with the given roles, inserts it into both sessions'
// lists (source first, then target), and notifies target with INVITED.
// Returns the source's locally-assigned ID.
func (s *ClientSession) MakeInvitation(target *ClientSession, sourceRole, targetRole engine.Role) (int, error) {
	if target == s {
		return 0, &svcerr.LookupError{Kind: "player", Key: "self"}
	}

	inv := NewInvitation(s, target, sourceRole, targetRole)
	sourceID := s.addInvitation(inv)
	targetID := target.addInvitation(inv)

	hdr := wire.Header{Type: wire.Invited, ID: uint8(targetID), Role: uint8(targetRole)}
	if err := target.SendPacket(hdr, []byte(s.PlayerName())); err != nil {
		slog.Warn("notifying target of invitation failed", "error", err)
	}
	return sourceID, nil
}

// Revoke closes an OPEN invitation for which this session is the
// source, notifying the target with REVOKED.
func (s *ClientSession) Revoke(id int) error {
	inv, ok := s.findInvitation(id)
	if !ok {
		return &svcerr.LookupError{Kind: "invitation", Key: fmt.Sprint(id)}
	}
	if inv.Source() != s {
		return &svcerr.StateError{Reason: "only the source may revoke an invitation"}
	}
	if err := inv.Close(engine.RoleNone); err != nil {
		return err
	}

	s.removeInvitation(inv)
	target := inv.Target()
	targetID, _ := target.removeInvitation(inv)
	if err := target.SendPacket(wire.Header{Type: wire.Revoked, ID: uint8(targetID)}, nil); err != nil {
		slog.Warn("notifying target of revoke failed", "error", err)
	}
	return nil
}

// Decline closes an OPEN invitation for which this session is the
// target, notifying the source with DECLINED.
func (s *ClientSession) Decline(id int) error {
	inv, ok := s.findInvitation(id)
	if !ok {
		return &svcerr.LookupError{Kind: "invitation", Key: fmt.Sprint(id)}
	}
	if inv.Target() != s {
		return &svcerr.StateError{Reason: "only the target may decline an invitation"}
	}
	if err := inv.Close(engine.RoleNone); err != nil {
		return err
	}

	s.removeInvitation(inv)
	source := inv.Source()
	sourceID, _ := source.removeInvitation(inv)
	if err := source.SendPacket(wire.Header{Type: wire.Declined, ID: uint8(sourceID)}, nil); err != nil {
		slog.Warn("notifying source of decline failed", "error", err)
	}
	return nil
}

// Accept transitions an OPEN invitation targeting this session to
// ACCEPTED, creating its Game, and notifies the source with ACCEPTED.
// The ACCEPTED notification to the source carries the initial board
// state iff the source plays FIRST; otherwise this method returns the
// initial board state itself (hasState = true) so the caller's own ACK
// can carry it. Exactly one of the two carries the initial board.
func (s *ClientSession) Accept(id int) (state string, hasState bool, err error) {
	inv, ok := s.findInvitation(id)
	if !ok {
		return "", false, &svcerr.LookupError{Kind: "invitation", Key: fmt.Sprint(id)}
	}
	if inv.Target() != s {
		return "", false, &svcerr.StateError{Reason: "only the target may accept an invitation"}
	}

	game, err := inv.Accept()
	if err != nil {
		return "", false, err
	}

	source := inv.Source()
	sourceID, _ := source.localIDFor(inv)
	initial := game.UnparseState()

	if inv.RoleFor(source) == engine.RoleFirst {
		hdr := wire.Header{Type: wire.Accepted, ID: uint8(sourceID)}
		if err := source.SendPacket(hdr, []byte(initial)); err != nil {
			slog.Warn("notifying source of accept failed", "error", err)
		}
		return "", false, nil
	}

	hdr := wire.Header{Type: wire.Accepted, ID: uint8(sourceID)}
	if err := source.SendPacket(hdr, nil); err != nil {
		slog.Warn("notifying source of accept failed", "error", err)
	}
	return initial, true, nil
}

// Resign closes an in-progress game in favor of the opponent, notifying
// the opponent with RESIGNED then ENDED (opponent before resigner), and
// posts the rating update.
func (s *ClientSession) Resign(id int) error {
	inv, ok := s.findInvitation(id)
	if !ok {
		return &svcerr.LookupError{Kind: "invitation", Key: fmt.Sprint(id)}
	}

	source, target := inv.Source(), inv.Target()
	var role engine.Role
	var opponent *ClientSession
	switch s {
	case source:
		role, opponent = inv.RoleFor(source), target
	case target:
		role, opponent = inv.RoleFor(target), source
	default:
		return &svcerr.StateError{Reason: "not a party to this invitation"}
	}

	if err := inv.Close(role); err != nil {
		return err
	}
	winner := inv.Winner()

	s.removeInvitation(inv)
	opponentID, _ := opponent.removeInvitation(inv)

	if err := opponent.SendPacket(wire.Header{Type: wire.Resigned, ID: uint8(opponentID)}, nil); err != nil {
		slog.Warn("notifying opponent of resignation failed", "error", err)
	}
	if err := opponent.SendPacket(wire.Header{Type: wire.Ended, ID: uint8(opponentID), Role: uint8(winner)}, nil); err != nil {
		slog.Warn("notifying opponent of game end failed", "error", err)
	}
	if err := s.SendPacket(wire.Header{Type: wire.Ended, ID: uint8(id), Role: uint8(winner)}, nil); err != nil {
		slog.Warn("notifying resigner of game end failed", "error", err)
	}

	outcome := rating.FirstWins
	if s == source {
		outcome = rating.SecondWins
	}
	rating.Update(source.Player(), target.Player(), outcome)
	return nil
}

// MakeMove parses and applies a move against an in-progress game,
// notifying the opponent with MOVED; if the move ends the game, both
// players are notified with ENDED (opponent then mover) and the rating
// update is posted.
func (s *ClientSession) MakeMove(id int, text string) error {
	inv, ok := s.findInvitation(id)
	if !ok {
		return &svcerr.LookupError{Kind: "invitation", Key: fmt.Sprint(id)}
	}

	source, target := inv.Source(), inv.Target()
	var role engine.Role
	var opponent *ClientSession
	switch s {
	case source:
		role, opponent = inv.RoleFor(source), target
	case target:
		role, opponent = inv.RoleFor(target), source
	default:
		return &svcerr.StateError{Reason: "not a party to this invitation"}
	}

	move, err := inv.ParseMove(role, text)
	if err != nil {
		return &svcerr.ProtocolError{Reason: err.Error()}
	}
	if err := inv.ApplyMove(move); err != nil {
		return &svcerr.StateError{Reason: err.Error()}
	}

	boardText := inv.StateString()
	opponentID, _ := opponent.localIDFor(inv)
	if err := opponent.SendPacket(wire.Header{Type: wire.Moved, ID: uint8(opponentID)}, []byte(boardText)); err != nil {
		slog.Warn("notifying opponent of move failed", "error", err)
	}

	if !inv.IsOver() {
		return nil
	}

	winner := inv.Winner()
	s.removeInvitation(inv)
	opponentID, _ = opponent.removeInvitation(inv)

	if err := opponent.SendPacket(wire.Header{Type: wire.Ended, ID: uint8(opponentID), Role: uint8(winner)}, nil); err != nil {
		slog.Warn("notifying opponent of game end failed", "error", err)
	}
	if err := s.SendPacket(wire.Header{Type: wire.Ended, ID: uint8(id), Role: uint8(winner)}, nil); err != nil {
		slog.Warn("notifying mover of game end failed", "error", err)
	}

	outcome := rating.Draw
	switch winner {
	case inv.RoleFor(source):
		outcome = rating.FirstWins
	case inv.RoleFor(target):
		outcome = rating.SecondWins
	}
	rating.Update(source.Player(), target.Player(), outcome)
	return nil
}

// SendAck sends an ACK frame carrying id and an optional payload.
func (s *ClientSession) SendAck(id uint8, payload []byte) error {
	return s.SendPacket(wire.Header{Type: wire.Ack, ID: id}, payload)
}

// SendNack sends a bare NACK frame.
func (s *ClientSession) SendNack() error {
	return s.SendPacket(wire.Header{Type: wire.Nack}, nil)
}

// SendPacket writes hdr and payload as one frame, serialised against
// every other write on this session.
func (s *ClientSession) SendPacket(hdr wire.Header, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return wire.WriteFrame(s.conn, hdr, payload)
}

// HalfCloseRead shuts down the read side of the connection, used by the
// shutdown coordinator so in-flight writes can still complete while no
// further client input is accepted. A connection that is not a
// *net.TCPConn has no read-only shutdown and is closed outright.
func (s *ClientSession) HalfCloseRead() {
	if tc, ok := s.conn.(*net.TCPConn); ok {
		_ = tc.CloseRead()
		return
	}
	_ = s.conn.Close()
}
