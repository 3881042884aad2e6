package engine

import "testing"

func TestNewGame_UnparseState(t *testing.T) {
	g := NewGame()
	got := g.UnparseState()
	want := " | | \n-----\n | | \n-----\n | | \nIt's X's turn\n"
	if got != want {
		t.Errorf("UnparseState() = %q, want %q", got, want)
	}
}

func TestParseMove_BareSquare(t *testing.T) {
	g := NewGame()
	m, err := g.ParseMove(RoleFirst, "5")
	if err != nil {
		t.Fatalf("ParseMove failed: %v", err)
	}
	if m.Player != RoleFirst || m.Square != 5 {
		t.Errorf("ParseMove = %+v, want {FIRST 5}", m)
	}
}

func TestParseMove_MarkedSquare(t *testing.T) {
	g := NewGame()
	m, err := g.ParseMove(RoleNone, "5<-X")
	if err != nil {
		t.Fatalf("ParseMove failed: %v", err)
	}
	if m.Player != RoleFirst || m.Square != 5 {
		t.Errorf("ParseMove = %+v, want {FIRST 5}", m)
	}
}

func TestParseMove_Invalid(t *testing.T) {
	g := NewGame()
	cases := []string{"5<-Z", "abc", "", "10", "0"}
	for _, text := range cases {
		if _, err := g.ParseMove(RoleNone, text); err == nil {
			t.Errorf("ParseMove(%q) succeeded, want error", text)
		}
	}
}

func TestParseMove_RoleMismatch(t *testing.T) {
	g := NewGame() // X to move
	if _, err := g.ParseMove(RoleSecond, "5"); err == nil {
		t.Error("ParseMove with wrong role succeeded, want error")
	}
}

func TestUnparseMove_RoundTrip(t *testing.T) {
	moves := []Move{{RoleFirst, 1}, {RoleSecond, 9}, {RoleFirst, 5}}
	for _, m := range moves {
		text := UnparseMove(m)
		g := NewGame()
		if m.Player == RoleSecond {
			// force it to be O's turn so ParseMove's role check passes
			_ = g.ApplyMove(Move{Player: RoleFirst, Square: 9})
		}
		got, err := g.ParseMove(m.Player, text)
		if err != nil {
			t.Fatalf("ParseMove(UnparseMove(%+v)) failed: %v", m, err)
		}
		if got != m {
			t.Errorf("round trip = %+v, want %+v", got, m)
		}
	}
}

func TestApplyMove_BoundarySquares(t *testing.T) {
	g := NewGame()
	if err := g.ApplyMove(Move{Player: RoleFirst, Square: 1}); err != nil {
		t.Errorf("square 1 rejected: %v", err)
	}
	g2 := NewGame()
	if err := g2.ApplyMove(Move{Player: RoleFirst, Square: 9}); err != nil {
		t.Errorf("square 9 rejected: %v", err)
	}
	g3 := NewGame()
	if err := g3.ApplyMove(Move{Player: RoleFirst, Square: 0}); err == nil {
		t.Error("square 0 accepted, want rejection")
	}
	g4 := NewGame()
	if err := g4.ApplyMove(Move{Player: RoleFirst, Square: 10}); err == nil {
		t.Error("square 10 accepted, want rejection")
	}
}

func TestApplyMove_Win(t *testing.T) {
	g := NewGame()
	moves := []Move{
		{RoleFirst, 1}, {RoleSecond, 4},
		{RoleFirst, 2}, {RoleSecond, 5},
		{RoleFirst, 3}, // X wins top row
	}
	for _, m := range moves {
		if err := g.ApplyMove(m); err != nil {
			t.Fatalf("ApplyMove(%+v) failed: %v", m, err)
		}
	}
	if !g.IsOver() {
		t.Fatal("expected game to be over")
	}
	if g.Winner() != RoleFirst {
		t.Errorf("Winner() = %v, want FIRST", g.Winner())
	}
}

func TestApplyMove_Draw(t *testing.T) {
	g := NewGame()
	// X O X / X O O / O X X -- no winner, board full
	seq := []struct {
		role   Role
		square int
	}{
		{RoleFirst, 1}, {RoleSecond, 2}, {RoleFirst, 3},
		{RoleSecond, 5}, {RoleFirst, 4}, {RoleSecond, 6},
		{RoleFirst, 8}, {RoleSecond, 7}, {RoleFirst, 9},
	}
	for _, s := range seq {
		if err := g.ApplyMove(Move{Player: s.role, Square: s.square}); err != nil {
			t.Fatalf("ApplyMove(%v, %d) failed: %v", s.role, s.square, err)
		}
	}
	if !g.IsOver() {
		t.Fatal("expected game to be over")
	}
	if g.Winner() != RoleNone {
		t.Errorf("Winner() = %v, want NONE (draw)", g.Winner())
	}
}

func TestResign(t *testing.T) {
	g := NewGame()
	if err := g.Resign(RoleFirst); err != nil {
		t.Fatalf("Resign failed: %v", err)
	}
	if !g.IsOver() {
		t.Fatal("expected game to be over")
	}
	if g.Winner() != RoleSecond {
		t.Errorf("Winner() = %v, want SECOND", g.Winner())
	}
	if err := g.Resign(RoleSecond); err == nil {
		t.Error("second Resign succeeded, want error")
	}
}

func TestApplyMove_OccupiedSquare(t *testing.T) {
	g := NewGame()
	if err := g.ApplyMove(Move{Player: RoleFirst, Square: 5}); err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}
	if err := g.ApplyMove(Move{Player: RoleSecond, Square: 5}); err == nil {
		t.Error("ApplyMove onto occupied square succeeded, want error")
	}
}
