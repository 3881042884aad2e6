// Package engine is the pure tic-tac-toe move-legality engine: a 3x3
// board, move parsing, legality, resignation, termination, winner
// determination, and human-readable rendering. No I/O, no concurrency
// beyond the guard a caller may wrap it in.
package engine

import (
	"fmt"
	"strings"
)

// Role identifies which side of a match a party plays. RoleFirst always
// moves first and plays X; RoleSecond plays O.
type Role int

const (
	RoleNone Role = iota
	RoleFirst
	RoleSecond
)

func (r Role) String() string {
	switch r {
	case RoleFirst:
		return "FIRST"
	case RoleSecond:
		return "SECOND"
	default:
		return "NONE"
	}
}

type cell int

const (
	cellEmpty cell = iota
	cellX
	cellO
)

func (c cell) String() string {
	switch c {
	case cellX:
		return "X"
	case cellO:
		return "O"
	default:
		return " "
	}
}

// Move is an immutable (player, square) pair. Square is 1-9, addressed
// left-to-right, top-to-bottom.
type Move struct {
	Player Role
	Square int
}

// Game is a single tic-tac-toe match. Zero value is not usable; use
// NewGame. All methods are safe to call without external locking only
// if the caller does not share one *Game across goroutines without its
// own guard — Game itself holds no mutex, matching its "pure, no
// concurrency" role; the owning Invitation supplies the guard.
type Game struct {
	board      [9]cell
	turnX      bool
	numTurns   int
	winner     Role
	terminated bool
}

// NewGame returns a fresh game with an empty board, X (FIRST) to move.
func NewGame() *Game {
	return &Game{turnX: true}
}

// IsOver reports whether the game has ended, by win or by draw or by
// resignation.
func (g *Game) IsOver() bool {
	return g.terminated
}

// Winner returns the stored winner if the game has terminated (including
// via resignation); otherwise it computes the live winner from the board
// (RoleNone if nobody has won yet).
func (g *Game) Winner() Role {
	if g.terminated {
		return g.winner
	}
	if g.wins(cellX) {
		return RoleFirst
	}
	if g.wins(cellO) {
		return RoleSecond
	}
	return RoleNone
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func (g *Game) wins(c cell) bool {
	for _, line := range winLines {
		if g.board[line[0]] == c && g.board[line[1]] == c && g.board[line[2]] == c {
			return true
		}
	}
	return false
}

// ParseMove parses text into a Move against the current turn. role, if
// not RoleNone, must name the party whose turn it currently is; passing
// RoleNone skips that check and derives the player from the move text
// itself (the 4-character "<-X"/"<-O" form only).
//
// Accepted forms: a single digit 1-9 ("5"), or a square followed by
// "<-X" or "<-O" ("5<-X"). Any other text is rejected.
func (g *Game) ParseMove(role Role, text string) (Move, error) {
	if role != RoleNone {
		turnRole := RoleSecond
		if g.turnX {
			turnRole = RoleFirst
		}
		if role != turnRole {
			return Move{}, fmt.Errorf("engine: not %s's turn", role)
		}
	}

	switch len(text) {
	case 1:
		if text[0] < '1' || text[0] > '9' {
			return Move{}, fmt.Errorf("engine: invalid move square %q", text)
		}
		if role == RoleNone {
			return Move{}, fmt.Errorf("engine: bare square requires a role")
		}
		return Move{Player: role, Square: int(text[0] - '0')}, nil
	case 4:
		if text[0] < '1' || text[0] > '9' || text[1:3] != "<-" {
			return Move{}, fmt.Errorf("engine: invalid move text %q", text)
		}
		var player Role
		switch text[3] {
		case 'X':
			player = RoleFirst
		case 'O':
			player = RoleSecond
		default:
			return Move{}, fmt.Errorf("engine: invalid move mark %q", text)
		}
		return Move{Player: player, Square: int(text[0] - '0')}, nil
	default:
		return Move{}, fmt.Errorf("engine: invalid move text %q", text)
	}
}

// UnparseMove renders m in the "5<-X" canonical form.
func UnparseMove(m Move) string {
	mark := "X"
	if m.Player == RoleSecond {
		mark = "O"
	}
	return fmt.Sprintf("%d<-%s", m.Square, mark)
}

// ApplyMove validates and applies m against the current state: the
// square must be in range and empty, it must be m.Player's turn, and
// the game must not already be over.
func (g *Game) ApplyMove(m Move) error {
	if g.terminated {
		return fmt.Errorf("engine: game already over")
	}
	if m.Square < 1 || m.Square > 9 {
		return fmt.Errorf("engine: square %d out of range", m.Square)
	}
	idx := m.Square - 1
	if g.board[idx] != cellEmpty {
		return fmt.Errorf("engine: square %d occupied", m.Square)
	}
	if m.Player == RoleFirst && !g.turnX {
		return fmt.Errorf("engine: not FIRST's turn")
	}
	if m.Player == RoleSecond && g.turnX {
		return fmt.Errorf("engine: not SECOND's turn")
	}

	if g.turnX {
		g.board[idx] = cellX
	} else {
		g.board[idx] = cellO
	}
	g.turnX = !g.turnX
	g.numTurns++

	if g.wins(cellX) {
		g.winner = RoleFirst
		g.terminated = true
	} else if g.wins(cellO) {
		g.winner = RoleSecond
		g.terminated = true
	} else if g.numTurns >= 9 {
		g.winner = RoleNone
		g.terminated = true
	}
	return nil
}

// Resign ends the game in favor of the opposite role. It fails if the
// game has already terminated.
func (g *Game) Resign(role Role) error {
	if g.terminated {
		return fmt.Errorf("engine: game already over")
	}
	g.terminated = true
	if role == RoleFirst {
		g.winner = RoleSecond
	} else {
		g.winner = RoleFirst
	}
	return nil
}

// UnparseState renders the board as three rows separated by dashes,
// followed by whose turn it is, e.g. for a fresh game:
//
//	 | |
//	-----
//	 | |
//	-----
//	 | |
//	It's X's turn
func (g *Game) UnparseState() string {
	var b strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			b.WriteString("-----\n")
		}
		fmt.Fprintf(&b, "%s|%s|%s\n", g.board[row*3], g.board[row*3+1], g.board[row*3+2])
	}
	if g.turnX {
		b.WriteString("It's X's turn\n")
	} else {
		b.WriteString("It's O's turn\n")
	}
	return b.String()
}
