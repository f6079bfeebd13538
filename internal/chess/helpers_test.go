package chess

import (
	"testing"
)

// place builds a board from entries like "Ke1" or "pa7". Uppercase letters are White.
func place(t *testing.T, entries ...string) *Board {
	t.Helper()
	pieces := make([]Piece, 0, len(entries))
	for _, e := range entries {
		if len(e) != 3 {
			t.Fatalf("bad placement %q", e)
		}
		color := Black
		if e[0] >= 'A' && e[0] <= 'Z' {
			color = White
		}
		pt, err := ParsePieceType(string(e[0]))
		if err != nil {
			t.Fatalf("bad placement %q: %v", e, err)
		}
		pieces = append(pieces, NewPiece(pt, sq(t, e[1:]), color))
	}
	return NewBoard(pieces...)
}

func sq(t *testing.T, s string) Position {
	t.Helper()
	p, err := ParsePosition(s)
	if err != nil {
		t.Fatalf("bad square %q: %v", s, err)
	}
	return p
}

func squares(t *testing.T, names ...string) SquareSet {
	t.Helper()
	var set SquareSet
	for _, n := range names {
		set = set.Add(sq(t, n))
	}
	return set
}

// play applies a sequence of coordinate moves, failing the test on the first rejection.
func play(t *testing.T, g *Game, moves string) *Game {
	t.Helper()
	parsed, err := ParseMoves(moves)
	if err != nil {
		t.Fatalf("ParseMoves(%q): %v", moves, err)
	}
	for _, m := range parsed {
		next, err := g.ApplyMove(m)
		if err != nil {
			t.Fatalf("move %s rejected:\n%s\n%v", m, g.Board(), err)
		}
		g = next
	}
	return g
}
