package client

import (
	"fmt"
	"strings"

	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/match"
)

// Board rebuilds the position of a view.
func Board(view match.View) (*chess.Board, error) {
	pieces := make([]chess.Piece, 0, len(view.Pieces))
	for _, p := range view.Pieces {
		pos, err := chess.ParsePosition(p.Position)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, chess.NewPiece(p.PieceType, pos, p.Color))
	}
	return chess.NewBoard(pieces...), nil
}

// Render draws the board of a view followed by a one-line status.
func Render(view match.View) (string, error) {
	board, err := Board(view)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(board.String())
	sb.WriteString("\n")
	sb.WriteString(Status(view))
	return sb.String(), nil
}

// Status summarizes whose turn it is and how the game stands.
func Status(view match.View) string {
	switch {
	case view.GameFinished:
		return view.GameFinishedReason
	case !view.OpponentJoined:
		return "Waiting for an opponent to join"
	}

	var parts []string
	if view.LastOpponentMove != nil {
		parts = append(parts, fmt.Sprintf("last move %s%s", view.LastOpponentMove.From, view.LastOpponentMove.To))
	}
	turn := fmt.Sprintf("%s to move", view.CurrentPlayer)
	if view.MyTurn {
		turn = "your move"
	}
	parts = append(parts, turn)
	if view.Check {
		parts = append(parts, "check")
	}
	return strings.Join(parts, ", ")
}

// Hints lists the legal moves of a view in coordinate form.
func Hints(view match.View) []string {
	var moves []string
	for _, p := range view.Pieces {
		for _, to := range p.ValidMoves {
			moves = append(moves, p.Position+to)
		}
	}
	return moves
}
