package chess

import (
	"fmt"
	"strings"
)

type Color uint8

const (
	White Color = iota
	Black
)

// Negate returns the opposing color.
func (c Color) Negate() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "WHITE"
	}
	return "BLACK"
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts "white"/"black" in any case, or "w"/"b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("%w: color %q", ErrInvalidFormat, s)
}

type PieceType uint8

const (
	NoPieceType PieceType = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

var pieceTypeNames = map[PieceType]string{
	King:   "KING",
	Queen:  "QUEEN",
	Rook:   "ROOK",
	Bishop: "BISHOP",
	Knight: "KNIGHT",
	Pawn:   "PAWN",
}

func (t PieceType) String() string {
	if name, ok := pieceTypeNames[t]; ok {
		return name
	}
	return ""
}

func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(text []byte) error {
	parsed, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParsePieceType accepts a piece name ("queen", "KNIGHT") or its letter ("q", "n").
func ParsePieceType(s string) (PieceType, error) {
	switch strings.ToLower(s) {
	case "king", "k":
		return King, nil
	case "queen", "q":
		return Queen, nil
	case "rook", "r":
		return Rook, nil
	case "bishop", "b":
		return Bishop, nil
	case "knight", "n":
		return Knight, nil
	case "pawn", "p":
		return Pawn, nil
	}
	return NoPieceType, fmt.Errorf("%w: piece type %q", ErrInvalidFormat, s)
}

// Piece is an immutable piece placement.
type Piece struct {
	Position Position
	Color    Color
	Type     PieceType
}

// NewPiece constructs a piece of type t. Promotion uses it to replace the pawn.
func NewPiece(t PieceType, pos Position, c Color) Piece {
	return Piece{Position: pos, Color: c, Type: t}
}

// MoveTo returns the same piece standing on pos.
func (p Piece) MoveTo(pos Position) Piece {
	return Piece{Position: pos, Color: p.Color, Type: p.Type}
}

func (p Piece) String() string {
	return fmt.Sprintf("%s %s@%s", p.Color, p.Type, p.Position)
}

// RawMoves lists candidate destinations for p without regard to the safety of its own king.
// Squares held by the mover's own color may still appear for non-sliding pieces.
func (p Piece) RawMoves(g *Game) SquareSet {
	switch p.Type {
	case Pawn:
		return p.pawnMoves(g)
	case Knight:
		return SquaresOf(p.Position.Knight()...)
	case Bishop:
		return MoveUntilHit(p.Position.BishopRays(), g.board, p.Color)
	case Rook:
		return MoveUntilHit(p.Position.RookRays(), g.board, p.Color)
	case Queen:
		return MoveUntilHit(p.Position.QueenRays(), g.board, p.Color)
	case King:
		moves := SquaresOf(p.Position.King()...)
		if g.currentPlayer == p.Color {
			moves |= p.castlingMoves(g)
		}
		return moves
	}
	return 0
}

// LegalMoves filters RawMoves down to destinations not held by the mover's own color and
// not leaving the mover's own king attacked.
func (p Piece) LegalMoves(g *Game) SquareSet {
	moves := p.RawMoves(g)
	for _, to := range moves.Positions() {
		if occupant, ok := g.board.At(to); ok && occupant.Color == p.Color {
			moves = moves.Remove(to)
			continue
		}
		after := g.board.ApplyMoveNoValidate(Move{From: p.Position, To: to})
		if after.KingAttacked(p.Color) {
			moves = moves.Remove(to)
		}
	}
	return moves
}

// attacks lists the squares p threatens on b. Pawns threaten only their diagonals and kings
// never threaten by castling.
func (p Piece) attacks(b *Board) SquareSet {
	switch p.Type {
	case Pawn:
		var out SquareSet
		if f1, ok := p.Position.Step(pawnForward(p.Color)); ok {
			if l, ok := f1.Left(); ok {
				out = out.Add(l)
			}
			if r, ok := f1.Right(); ok {
				out = out.Add(r)
			}
		}
		return out
	case Knight:
		return SquaresOf(p.Position.Knight()...)
	case Bishop:
		return MoveUntilHit(p.Position.BishopRays(), b, p.Color)
	case Rook:
		return MoveUntilHit(p.Position.RookRays(), b, p.Color)
	case Queen:
		return MoveUntilHit(p.Position.QueenRays(), b, p.Color)
	case King:
		return SquaresOf(p.Position.King()...)
	}
	return 0
}
