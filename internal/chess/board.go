package chess

import (
	"sort"
	"strings"
)

// Board is an immutable placement of pieces. Every move produces a new Board.
type Board struct {
	pieces [2]map[Position]Piece
}

func emptyBoard() *Board {
	return &Board{pieces: [2]map[Position]Piece{
		White: make(map[Position]Piece, 16),
		Black: make(map[Position]Piece, 16),
	}}
}

// NewBoard places the given pieces. A later piece on an occupied square replaces the earlier one.
func NewBoard(pieces ...Piece) *Board {
	b := emptyBoard()
	for _, p := range pieces {
		b.put(p)
	}
	return b
}

var backRankOrder = []PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartBoard returns the standard opening position.
func StartBoard() *Board {
	b := emptyBoard()
	for x := 1; x <= 8; x++ {
		b.put(NewPiece(Pawn, Pos(x, 2), White))
		b.put(NewPiece(Pawn, Pos(x, 7), Black))
		b.put(NewPiece(backRankOrder[x-1], Pos(x, 1), White))
		b.put(NewPiece(backRankOrder[x-1], Pos(x, 8), Black))
	}
	return b
}

func (b *Board) put(p Piece) {
	delete(b.pieces[p.Color.Negate()], p.Position)
	b.pieces[p.Color][p.Position] = p
}

func (b *Board) clone() *Board {
	c := &Board{}
	for i := range b.pieces {
		c.pieces[i] = make(map[Position]Piece, len(b.pieces[i]))
		for pos, p := range b.pieces[i] {
			c.pieces[i][pos] = p
		}
	}
	return c
}

// At returns the piece on pos, if any.
func (b *Board) At(pos Position) (Piece, bool) {
	if p, ok := b.pieces[White][pos]; ok {
		return p, true
	}
	p, ok := b.pieces[Black][pos]
	return p, ok
}

// Pieces lists one side's pieces in board order.
func (b *Board) Pieces(c Color) []Piece {
	out := make([]Piece, 0, len(b.pieces[c]))
	for _, p := range b.pieces[c] {
		out = append(out, p)
	}
	sortPieces(out)
	return out
}

// AllPieces lists every piece, white first, each side in board order.
func (b *Board) AllPieces() []Piece {
	return append(b.Pieces(White), b.Pieces(Black)...)
}

// Count returns how many pieces c has on the board.
func (b *Board) Count(c Color) int {
	return len(b.pieces[c])
}

func sortPieces(ps []Piece) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Position.Y != ps[j].Position.Y {
			return ps[i].Position.Y < ps[j].Position.Y
		}
		return ps[i].Position.X < ps[j].Position.X
	})
}

// King returns the square of c's king. The second result is false when c has no king.
func (b *Board) King(c Color) (Position, bool) {
	for pos, p := range b.pieces[c] {
		if p.Type == King {
			return pos, true
		}
	}
	return Position{}, false
}

// Attacks is the union of squares threatened by c's pieces.
func (b *Board) Attacks(c Color) SquareSet {
	var out SquareSet
	for _, p := range b.pieces[c] {
		out |= p.attacks(b)
	}
	return out
}

// SquareAttacked reports whether any piece of color by threatens pos.
func (b *Board) SquareAttacked(pos Position, by Color) bool {
	return b.Attacks(by).Has(pos)
}

// KingAttacked reports whether c's king is threatened. A side without a king is never attacked.
func (b *Board) KingAttacked(c Color) bool {
	king, ok := b.King(c)
	if !ok {
		return false
	}
	return b.SquareAttacked(king, c.Negate())
}

// ApplyMoveNoValidate returns the board after m without checking legality. The piece on
// m.From must exist. The receiver is left untouched.
func (b *Board) ApplyMoveNoValidate(m Move) *Board {
	mover, ok := b.At(m.From)
	if !ok {
		return b
	}

	next := b.clone()
	switch {
	case b.isCastling(mover, m):
		next.applyCastling(mover, m)
	case b.isEnPassant(mover, m):
		next.applyEnPassant(mover, m)
	default:
		next.applyStandardMove(mover, m)
	}

	if m.Promotion != NoPieceType {
		next.pieces[mover.Color][m.To] = NewPiece(m.Promotion, m.To, mover.Color)
	}
	return next
}

func (b *Board) isCastling(mover Piece, m Move) bool {
	dx := m.To.X - m.From.X
	return mover.Type == King && (dx > 1 || dx < -1)
}

func (b *Board) isEnPassant(mover Piece, m Move) bool {
	_, occupied := b.At(m.To)
	return mover.Type == Pawn && m.From.X != m.To.X && !occupied
}

func (b *Board) applyCastling(king Piece, m Move) {
	var rookFrom, rookTo Position
	if m.To.X < m.From.X {
		rookFrom = Position{X: m.To.X - 2, Y: m.To.Y}
		rookTo = Position{X: m.To.X + 1, Y: m.To.Y}
	} else {
		rookFrom = Position{X: m.To.X + 1, Y: m.To.Y}
		rookTo = Position{X: m.To.X - 1, Y: m.To.Y}
	}

	own := b.pieces[king.Color]
	b.relocate(own, m.From, m.To)
	if _, ok := own[rookFrom]; ok {
		b.relocate(own, rookFrom, rookTo)
	}
}

func (b *Board) applyEnPassant(pawn Piece, m Move) {
	b.relocate(b.pieces[pawn.Color], m.From, m.To)
	if captured, ok := m.To.Step(pawnBackward(pawn.Color)); ok {
		delete(b.pieces[pawn.Color.Negate()], captured)
	}
}

func (b *Board) applyStandardMove(mover Piece, m Move) {
	delete(b.pieces[mover.Color.Negate()], m.To)
	b.relocate(b.pieces[mover.Color], m.From, m.To)
}

func (b *Board) relocate(side map[Position]Piece, from, to Position) {
	p := side[from]
	delete(side, from)
	side[to] = p.MoveTo(to)
}

var pieceLetters = map[PieceType]byte{
	King: 'k', Queen: 'q', Rook: 'r', Bishop: 'b', Knight: 'n', Pawn: 'p',
}

// String draws the board from White's side, uppercase for White.
func (b *Board) String() string {
	var sb strings.Builder
	for y := 8; y >= 1; y-- {
		sb.WriteByte(byte('0' + y))
		sb.WriteByte(' ')
		for x := 1; x <= 8; x++ {
			p, ok := b.At(Position{X: x, Y: y})
			switch {
			case !ok:
				sb.WriteByte('.')
			case p.Color == White:
				sb.WriteByte(pieceLetters[p.Type] - 'a' + 'A')
			default:
				sb.WriteByte(pieceLetters[p.Type])
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh")
	return sb.String()
}
