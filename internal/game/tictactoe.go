package game

import (
	"errors"
	"fmt"
)

// Player symbols and terminal results as they appear on the wire.
const (
	SymbolX = "X"
	SymbolO = "O"

	ResultWin  = "WIN"
	ResultDraw = "DRAW"
)

// State is the lifecycle of a session: invited, in progress, completed.
type State int

const (
	StateInvited State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInvited:
		return "invited"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

var (
	// ErrNotFound reports a move against an unknown or purged game id.
	ErrNotFound = errors.New("game not found")
	// ErrInvalidMove reports a move that violates a session precondition:
	// wrong turn, occupied cell, out-of-range position, finished game.
	ErrInvalidMove = errors.New("invalid move")
)

// winningLines are the 3 rows, 3 columns and 2 diagonals, zero-based.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Session is one two-player game. Cells hold "X", "O" or "". X always moves
// first regardless of which side the inviter took.
type Session struct {
	ID          string
	PlayerX     string
	PlayerO     string
	Cells       [9]string
	Turn        string
	State       State
	Result      string
	Winner      string // user id of the winning player, empty on a draw
	WinningLine [3]int
	Moves       int
}

func newSession(id, playerX, playerO string) *Session {
	return &Session{
		ID:      id,
		PlayerX: playerX,
		PlayerO: playerO,
		Turn:    SymbolX,
		State:   StateInvited,
	}
}

// SymbolOf returns the symbol assigned to a participant.
func (s *Session) SymbolOf(userID string) (string, bool) {
	switch userID {
	case s.PlayerX:
		return SymbolX, true
	case s.PlayerO:
		return SymbolO, true
	}
	return "", false
}

// Opponent returns the other participant.
func (s *Session) Opponent(userID string) string {
	if userID == s.PlayerX {
		return s.PlayerO
	}
	return s.PlayerX
}

// move applies one move for userID at position (1-9). The first valid move
// promotes an invited session to in-progress. Invalid moves leave the board
// untouched.
func (s *Session) move(userID string, position int) error {
	if s.State == StateCompleted {
		return fmt.Errorf("%w: game %s already completed", ErrInvalidMove, s.ID)
	}
	symbol, ok := s.SymbolOf(userID)
	if !ok {
		return fmt.Errorf("%w: %s is not a participant of %s", ErrInvalidMove, userID, s.ID)
	}
	if symbol != s.Turn {
		return fmt.Errorf("%w: not %s's turn in %s", ErrInvalidMove, symbol, s.ID)
	}
	if position < 1 || position > 9 {
		return fmt.Errorf("%w: position %d out of range", ErrInvalidMove, position)
	}
	cell := position - 1
	if s.Cells[cell] != "" {
		return fmt.Errorf("%w: cell %d already occupied", ErrInvalidMove, position)
	}

	s.Cells[cell] = symbol
	s.Moves++
	s.State = StateInProgress

	if line, won := s.winningLineFor(symbol); won {
		s.State = StateCompleted
		s.Result = ResultWin
		s.Winner = userID
		s.WinningLine = line
		return nil
	}
	if s.Moves == 9 {
		s.State = StateCompleted
		s.Result = ResultDraw
		return nil
	}
	s.Turn = otherSymbol(symbol)
	return nil
}

func (s *Session) winningLineFor(symbol string) ([3]int, bool) {
	for _, line := range winningLines {
		if s.Cells[line[0]] == symbol && s.Cells[line[1]] == symbol && s.Cells[line[2]] == symbol {
			return line, true
		}
	}
	return [3]int{}, false
}

// Board renders the nine cells as a single string, space for empty.
func (s *Session) Board() string {
	out := make([]byte, 9)
	for i, cell := range s.Cells {
		if cell == "" {
			out[i] = ' '
		} else {
			out[i] = cell[0]
		}
	}
	return string(out)
}

func otherSymbol(symbol string) string {
	if symbol == SymbolX {
		return SymbolO
	}
	return SymbolX
}
