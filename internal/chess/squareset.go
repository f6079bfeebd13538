package chess

import (
	"math/bits"
	"strings"
)

// SquareSet is a set of board squares, one bit per square (a1 = bit 0, h8 = bit 63).
type SquareSet uint64

func squareBit(p Position) SquareSet {
	return SquareSet(1) << uint((p.Y-1)*8+(p.X-1))
}

// SquaresOf builds a set from the given positions.
func SquaresOf(ps ...Position) SquareSet {
	var s SquareSet
	for _, p := range ps {
		s = s.Add(p)
	}
	return s
}

func (s SquareSet) Add(p Position) SquareSet {
	if !p.Valid() {
		return s
	}
	return s | squareBit(p)
}

func (s SquareSet) Remove(p Position) SquareSet {
	if !p.Valid() {
		return s
	}
	return s &^ squareBit(p)
}

func (s SquareSet) Has(p Position) bool {
	return p.Valid() && s&squareBit(p) != 0
}

func (s SquareSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

func (s SquareSet) Empty() bool {
	return s == 0
}

// Positions lists the members in board order (a1, b1, ... h8).
func (s SquareSet) Positions() []Position {
	out := make([]Position, 0, s.Len())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		i := bits.TrailingZeros64(rest)
		out = append(out, Position{X: i%8 + 1, Y: i/8 + 1})
	}
	return out
}

// Strings returns the members as square names.
func (s SquareSet) Strings() []string {
	ps := s.Positions()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func (s SquareSet) String() string {
	return "{" + strings.Join(s.Strings(), " ") + "}"
}
