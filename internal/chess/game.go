package chess

import (
	"fmt"
	"slices"
)

// Game is an immutable chess game state. ApplyMove returns a new Game and never mutates
// the receiver, so a *Game can be shared freely between goroutines.
type Game struct {
	currentPlayer  Color
	board          *Board
	previousStates []*Board
	previousMoves  []Move

	finished  bool
	winner    Color
	hasWinner bool
	status    GameStatus
	legal     map[Position]SquareSet
}

// Start returns a game at the standard opening position with White to move.
func Start() *Game {
	return NewGame(White, StartBoard())
}

// NewGame returns a game with an empty history on an arbitrary position.
func NewGame(current Color, board *Board) *Game {
	g := &Game{currentPlayer: current, board: board}
	g.updateStatus()
	return g
}

func (g *Game) CurrentPlayer() Color { return g.currentPlayer }
func (g *Game) Board() *Board        { return g.board }
func (g *Game) Status() GameStatus   { return g.status }
func (g *Game) Finished() bool       { return g.finished }

// Winner returns the winning color once the game ended in checkmate.
func (g *Game) Winner() (Color, bool) {
	return g.winner, g.hasWinner
}

// PreviousStates returns the boards before each played move, oldest first.
func (g *Game) PreviousStates() []*Board {
	return slices.Clone(g.previousStates)
}

// PreviousMoves returns the played moves, oldest first.
func (g *Game) PreviousMoves() []Move {
	return slices.Clone(g.previousMoves)
}

// MoveCount is the number of plies played.
func (g *Game) MoveCount() int {
	return len(g.previousMoves)
}

// LastMove returns the most recent move, if any.
func (g *Game) LastMove() (Move, bool) {
	if len(g.previousMoves) == 0 {
		return Move{}, false
	}
	return g.previousMoves[len(g.previousMoves)-1], true
}

func (g *Game) At(pos Position) (Piece, bool) {
	return g.board.At(pos)
}

func (g *Game) Empty(pos Position) bool {
	_, occupied := g.board.At(pos)
	return !occupied
}

// IsUnderAttack reports whether the current player's opponent threatens pos.
func (g *Game) IsUnderAttack(pos Position) bool {
	return g.board.SquareAttacked(pos, g.currentPlayer.Negate())
}

// KingUnderAttack reports whether c's king is threatened on the current board.
func (g *Game) KingUnderAttack(c Color) bool {
	return g.board.KingAttacked(c)
}

// LegalMoves maps each of the current player's pieces to its legal destinations.
func (g *Game) LegalMoves() map[Position]SquareSet {
	out := make(map[Position]SquareSet, len(g.legal))
	for pos, moves := range g.legal {
		out[pos] = moves
	}
	return out
}

// LegalMovesFrom returns the legal destinations of the current player's piece on pos.
func (g *Game) LegalMovesFrom(pos Position) SquareSet {
	return g.legal[pos]
}

// LegalMoveCount is the total number of legal moves for the current player.
func (g *Game) LegalMoveCount() int {
	n := 0
	for _, moves := range g.legal {
		n += moves.Len()
	}
	return n
}

// touched reports whether any played move started or ended on sq.
func (g *Game) touched(sq Position) bool {
	for _, m := range g.previousMoves {
		if m.From == sq || m.To == sq {
			return true
		}
	}
	return false
}

// ApplyMove validates m against the current position and returns the resulting game.
// On error the receiver is unchanged and no game is returned.
func (g *Game) ApplyMove(m Move) (*Game, error) {
	if err := g.ensureMoveValid(m); err != nil {
		return nil, err
	}
	piece, _ := g.board.At(m.From)
	if m.Promotion == NoPieceType && piece.Type == Pawn && isBackRank(m.To.Y) {
		m.Promotion = Queen
	}

	next := g.applyMoveNoValidate(m)
	next.updateStatus()
	return next, nil
}

func (g *Game) applyMoveNoValidate(m Move) *Game {
	states := make([]*Board, len(g.previousStates), len(g.previousStates)+1)
	copy(states, g.previousStates)
	moves := make([]Move, len(g.previousMoves), len(g.previousMoves)+1)
	copy(moves, g.previousMoves)

	return &Game{
		currentPlayer:  g.currentPlayer.Negate(),
		board:          g.board.ApplyMoveNoValidate(m),
		previousStates: append(states, g.board),
		previousMoves:  append(moves, m),
	}
}

func (g *Game) ensureMoveValid(m Move) error {
	piece, ok := g.board.At(m.From)
	if !ok {
		return fmt.Errorf("%w: no piece at %s", ErrInvalidMove, m.From)
	}
	if m.Promotion != NoPieceType {
		if piece.Type != Pawn || !isBackRank(m.To.Y) {
			return fmt.Errorf("%w: promotion only applies to a pawn reaching the last rank", ErrInvalidMove)
		}
		if !promotable(m.Promotion) {
			return fmt.Errorf("%w: cannot promote to %s", ErrInvalidMove, m.Promotion)
		}
	}
	if g.finished {
		return fmt.Errorf("%w: game is finished", ErrInvalidMove)
	}
	if piece.Color != g.currentPlayer {
		return fmt.Errorf("%w: %s is not to move", ErrInvalidMove, piece.Color)
	}
	if !g.legal[m.From].Has(m.To) {
		return fmt.Errorf("%w: %s cannot move to %s", ErrInvalidMove, piece.Type, m.To)
	}
	return nil
}

func isBackRank(y int) bool {
	return y == backRank[White] || y == backRank[Black]
}

func promotable(t PieceType) bool {
	return t == Queen || t == Rook || t == Bishop || t == Knight
}

func (g *Game) updateStatus() {
	g.legal = make(map[Position]SquareSet, g.board.Count(g.currentPlayer))
	canMove := false
	for _, p := range g.board.Pieces(g.currentPlayer) {
		moves := p.LegalMoves(g)
		g.legal[p.Position] = moves
		if !moves.Empty() {
			canMove = true
		}
	}
	kingAttacked := g.board.KingAttacked(g.currentPlayer)

	switch {
	case kingAttacked && canMove:
		g.status = StatusCheck
	case kingAttacked:
		g.status = StatusCheckmate
		g.finished = true
		g.winner = g.currentPlayer.Negate()
		g.hasWinner = true
	case !canMove:
		g.status = StatusStalemate
		g.finished = true
	default:
		g.status = StatusNormal
	}
}
