package chess

import (
	"fmt"
	"strings"
)

// Move is a request to move the piece on From to To, optionally promoting it.
type Move struct {
	From      Position
	To        Position
	Promotion PieceType
}

// ParseMove decodes square strings and an optional promotion name. Any malformed part
// yields ErrInvalidMove wrapping ErrInvalidFormat.
func ParseMove(from, to, promotion string) (Move, error) {
	f, err := ParsePosition(from)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	t, err := ParsePosition(to)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}
	m := Move{From: f, To: t}
	if promotion != "" {
		pt, err := ParsePieceType(promotion)
		if err != nil {
			return Move{}, fmt.Errorf("%w: %w", ErrInvalidMove, err)
		}
		m.Promotion = pt
	}
	return m, nil
}

// ParseUCI decodes coordinate notation such as "e2e4" or "e7e8q".
func ParseUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %w: move %q", ErrInvalidMove, ErrInvalidFormat, s)
	}
	return ParseMove(s[0:2], s[2:4], s[4:])
}

// ParseMoves decodes a whitespace separated list of coordinate moves.
func ParseMoves(s string) ([]Move, error) {
	fields := strings.Fields(s)
	moves := make([]Move, 0, len(fields))
	for _, f := range fields {
		m, err := ParseUCI(f)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// String renders the move in coordinate notation, e.g. "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += string(pieceLetters[m.Promotion])
	}
	return s
}
