package chess

import (
	"fmt"
	"strings"
)

// Position is a square on the board. X is the file (1 = a) and Y the rank, both in [1,8].
type Position struct {
	X int
	Y int
}

// Direction is a single-square offset on the board.
type Direction struct {
	DX int
	DY int
}

var (
	DirUp        = Direction{0, 1}
	DirDown      = Direction{0, -1}
	DirLeft      = Direction{-1, 0}
	DirRight     = Direction{1, 0}
	DirUpLeft    = Direction{-1, 1}
	DirUpRight   = Direction{1, 1}
	DirDownLeft  = Direction{-1, -1}
	DirDownRight = Direction{1, -1}
)

var (
	rookDirections   = []Direction{DirUp, DirDown, DirLeft, DirRight}
	bishopDirections = []Direction{DirDownLeft, DirDownRight, DirUpLeft, DirUpRight}
	queenDirections  = append(append([]Direction{}, rookDirections...), bishopDirections...)

	knightOffsets = []Direction{
		{1, 2}, {-1, 2}, {1, -2}, {-1, -2},
		{-2, 1}, {-2, -1}, {2, 1}, {2, -1},
	}
)

// NewPosition returns the square at file x and rank y.
func NewPosition(x, y int) (Position, error) {
	if !inBounds(x, y) {
		return Position{}, fmt.Errorf("%w: position %d,%d out of range", ErrInvalidFormat, x, y)
	}
	return Position{X: x, Y: y}, nil
}

// Pos is NewPosition for coordinates known to be valid. It panics otherwise.
func Pos(x, y int) Position {
	p, err := NewPosition(x, y)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePosition decodes a square such as "e4" or "E4".
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("%w: square %q", ErrInvalidFormat, s)
	}
	s = strings.ToLower(s)
	file, rank := s[0], s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Position{}, fmt.Errorf("%w: square %q", ErrInvalidFormat, s)
	}
	return Position{X: int(file-'a') + 1, Y: int(rank-'0')}, nil
}

func inBounds(x, y int) bool {
	return x >= 1 && x <= 8 && y >= 1 && y <= 8
}

// Valid reports whether p lies on the board. The zero Position is not valid.
func (p Position) Valid() bool {
	return inBounds(p.X, p.Y)
}

func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + p.X - 1), byte('0' + p.Y)})
}

// Step moves one unit in direction d. The second result is false at the board edge.
func (p Position) Step(d Direction) (Position, bool) {
	x, y := p.X+d.DX, p.Y+d.DY
	if !inBounds(x, y) {
		return Position{}, false
	}
	return Position{X: x, Y: y}, true
}

func (p Position) Up() (Position, bool)    { return p.Step(DirUp) }
func (p Position) Down() (Position, bool)  { return p.Step(DirDown) }
func (p Position) Left() (Position, bool)  { return p.Step(DirLeft) }
func (p Position) Right() (Position, bool) { return p.Step(DirRight) }

func (p Position) UpLeft() (Position, bool)    { return p.Step(DirUpLeft) }
func (p Position) UpRight() (Position, bool)   { return p.Step(DirUpRight) }
func (p Position) DownLeft() (Position, bool)  { return p.Step(DirDownLeft) }
func (p Position) DownRight() (Position, bool) { return p.Step(DirDownRight) }

// Knight returns the in-bounds knight jumps from p.
func (p Position) Knight() []Position {
	return p.offsets(knightOffsets)
}

// King returns the in-bounds squares adjacent to p.
func (p Position) King() []Position {
	return p.offsets(queenDirections)
}

func (p Position) offsets(ds []Direction) []Position {
	out := make([]Position, 0, len(ds))
	for _, d := range ds {
		if to, ok := p.Step(d); ok {
			out = append(out, to)
		}
	}
	return out
}

// Ray is the sequence of squares outward from an origin (exclusive) in one direction,
// ending at the board edge. A Ray holds no iteration state and can be walked repeatedly.
type Ray struct {
	Origin    Position
	Direction Direction
}

// Walk calls fn for each square of the ray until fn returns false or the edge is reached.
func (r Ray) Walk(fn func(Position) bool) {
	cur := r.Origin
	for {
		next, ok := cur.Step(r.Direction)
		if !ok || !fn(next) {
			return
		}
		cur = next
	}
}

// Squares collects the whole ray.
func (r Ray) Squares() []Position {
	var out []Position
	r.Walk(func(p Position) bool {
		out = append(out, p)
		return true
	})
	return out
}

func (p Position) rays(ds []Direction) []Ray {
	out := make([]Ray, len(ds))
	for i, d := range ds {
		out[i] = Ray{Origin: p, Direction: d}
	}
	return out
}

func (p Position) RookRays() []Ray   { return p.rays(rookDirections) }
func (p Position) BishopRays() []Ray { return p.rays(bishopDirections) }
func (p Position) QueenRays() []Ray  { return p.rays(queenDirections) }

// MoveUntilHit walks each ray and stops at the first occupied square, which is kept only
// when it holds a piece of the other color.
func MoveUntilHit(rays []Ray, b *Board, c Color) SquareSet {
	var out SquareSet
	for _, r := range rays {
		r.Walk(func(to Position) bool {
			piece, occupied := b.At(to)
			if !occupied {
				out = out.Add(to)
				return true
			}
			if piece.Color != c {
				out = out.Add(to)
			}
			return false
		})
	}
	return out
}
