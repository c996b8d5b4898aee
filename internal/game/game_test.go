package game

import (
	"errors"
	"fmt"
	"testing"
)

const (
	alice = "alice@10.0.0.1"
	bob   = "bob@10.0.0.2"
)

func TestGameIDWrapsAt256(t *testing.T) {
	m := NewManager()
	for i := 0; i < 300; i++ {
		s, err := m.Invite(alice, bob, SymbolX)
		if err != nil {
			t.Fatalf("invite %d: %v", i, err)
		}
		want := fmt.Sprintf("g%d", i%256)
		if s.ID != want {
			t.Fatalf("game %d: expected id %s, got %s", i, want, s.ID)
		}
		m.Remove(s.ID)
	}
}

func TestInviterSymbolAssignment(t *testing.T) {
	m := NewManager()
	s, err := m.Invite(alice, bob, SymbolO)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if s.PlayerO != alice || s.PlayerX != bob {
		t.Fatalf("inviter should hold O: %+v", s)
	}
	if s.Turn != SymbolX {
		t.Fatalf("X always moves first, turn=%s", s.Turn)
	}
}

func TestWinOnEveryLine(t *testing.T) {
	for _, line := range winningLines {
		s := newSession("g0", alice, bob)
		s.State = StateInProgress
		for _, cell := range line {
			s.Cells[cell] = SymbolX
		}
		got, won := s.winningLineFor(SymbolX)
		if !won || got != line {
			t.Fatalf("line %v not detected as a win", line)
		}
	}
}

func TestPlayThroughToWin(t *testing.T) {
	m := NewManager()
	s, _ := m.Invite(alice, bob, SymbolX)
	id := s.ID

	moves := []struct {
		player string
		pos    int
	}{
		{alice, 1}, {bob, 4}, {alice, 2}, {bob, 5}, {alice, 3},
	}
	var last Session
	for _, mv := range moves {
		var err error
		last, err = m.Move(id, mv.player, mv.pos)
		if err != nil {
			t.Fatalf("move %v: %v", mv, err)
		}
	}
	if last.State != StateCompleted || last.Result != ResultWin || last.Winner != alice {
		t.Fatalf("expected a win for %s, got %+v", alice, last)
	}
	if last.WinningLine != [3]int{0, 1, 2} {
		t.Fatalf("wrong winning line: %v", last.WinningLine)
	}
}

func TestPlayThroughToDraw(t *testing.T) {
	m := NewManager()
	s, _ := m.Invite(alice, bob, SymbolX)

	// X X O / O O X / X O X: full board, no winning line.
	seq := []struct {
		player string
		pos    int
	}{
		{alice, 1}, {bob, 3}, {alice, 2}, {bob, 4}, {alice, 6},
		{bob, 5}, {alice, 7}, {bob, 8}, {alice, 9},
	}
	var last Session
	for _, mv := range seq {
		var err error
		last, err = m.Move(s.ID, mv.player, mv.pos)
		if err != nil {
			t.Fatalf("move %v: %v", mv, err)
		}
	}
	if last.Result != ResultDraw || last.State != StateCompleted {
		t.Fatalf("expected draw, got %+v", last)
	}
}

func TestOccupiedCellRejectedWithoutMutation(t *testing.T) {
	m := NewManager()
	s, _ := m.Invite(alice, bob, SymbolX)
	if _, err := m.Move(s.ID, alice, 5); err != nil {
		t.Fatalf("first move: %v", err)
	}
	before, _ := m.Get(s.ID)
	_, err := m.Move(s.ID, bob, 5)
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	after, _ := m.Get(s.ID)
	if before.Cells != after.Cells || before.Turn != after.Turn {
		t.Fatalf("rejected move mutated state: %+v vs %+v", before, after)
	}
}

func TestWrongTurnRejected(t *testing.T) {
	m := NewManager()
	s, _ := m.Invite(alice, bob, SymbolX)
	if _, err := m.Move(s.ID, bob, 1); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("O must not move first, got %v", err)
	}
	if _, err := m.Move(s.ID, alice, 1); err != nil {
		t.Fatalf("X first move: %v", err)
	}
	if _, err := m.Move(s.ID, alice, 2); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("turns must alternate, got %v", err)
	}
}

func TestUnknownGameRejected(t *testing.T) {
	m := NewManager()
	if _, err := m.Move("g99", alice, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMovePromotesInvitedSession(t *testing.T) {
	m := NewManager()
	s, err := m.Accept("g7", alice, bob, SymbolX)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if s.State != StateInvited {
		t.Fatalf("fresh invite should be in invited state")
	}
	got, err := m.Move("g7", alice, 5)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got.State != StateInProgress {
		t.Fatalf("first move should start the game, state=%v", got.State)
	}
}

func TestBoardRendering(t *testing.T) {
	s := newSession("g0", alice, bob)
	s.Cells[0] = SymbolX
	s.Cells[4] = SymbolO
	if s.Board() != "X   O    " {
		t.Fatalf("unexpected board %q", s.Board())
	}
}
