package match

import (
	"fmt"
	"time"

	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/store"
)

// PieceView is one piece as shown to a requester. ValidMoves is set only on the requester's
// own pieces while it is their turn.
type PieceView struct {
	Position   string          `json:"position"`
	Color      chess.Color     `json:"color"`
	PieceType  chess.PieceType `json:"pieceType"`
	ValidMoves []string        `json:"validMoves,omitempty"`
}

type MoveView struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// View is the game state projected for one requester.
type View struct {
	GameID             string              `json:"gameId"`
	Pieces             []PieceView         `json:"pieces"`
	CurrentPlayer      chess.Color         `json:"currentPlayer"`
	LastOpponentMove   *MoveView           `json:"lastOpponentMove,omitempty"`
	MyTurn             bool                `json:"myTurn"`
	Check              bool                `json:"check"`
	Checkmate          bool                `json:"checkmate"`
	Stalemate          bool                `json:"stalemate"`
	GameFinished       bool                `json:"gameFinished"`
	Winner             *chess.Color        `json:"winner"`
	GameFinishedReason string              `json:"gameFinishedReason,omitempty"`
	Status             chess.GameStatus    `json:"status"`
	Material           chess.MaterialCount `json:"material"`
	MoveCount          int                 `json:"moveCount"`
	OpponentJoined     bool                `json:"opponentJoined"`
}

// Connection is handed to a player when they host or join.
type Connection struct {
	GameID     string      `json:"id"`
	Token      string      `json:"token"`
	PlayerSide chess.Color `json:"playerSide"`
	GameState  View        `json:"gameState"`
}

// Summary is a short listing entry for a game.
type Summary struct {
	GameID         string           `json:"gameId"`
	Status         chess.GameStatus `json:"status"`
	CurrentPlayer  chess.Color      `json:"currentPlayer"`
	MoveCount      int              `json:"moveCount"`
	OpponentJoined bool             `json:"opponentJoined"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// Project builds the view of rec for the holder of token. An empty or foreign token yields
// a spectator view with no move hints.
func Project(rec store.Game, token string) View {
	g := rec.State
	current := g.CurrentPlayer()
	myTurn := token != "" && rec.Token(current) == token && !g.Finished()

	v := View{
		GameID:         rec.ID,
		Pieces:         make([]PieceView, 0, g.Board().Count(chess.White)+g.Board().Count(chess.Black)),
		CurrentPlayer:  current,
		MyTurn:         myTurn,
		Status:         g.Status(),
		Material:       g.MaterialCount(),
		MoveCount:      g.MoveCount(),
		OpponentJoined: rec.SecondPlayerJoined,
	}

	for _, p := range g.Board().AllPieces() {
		pv := PieceView{Position: p.Position.String(), Color: p.Color, PieceType: p.Type}
		if myTurn && p.Color == current {
			pv.ValidMoves = g.LegalMovesFrom(p.Position).Strings()
		}
		v.Pieces = append(v.Pieces, pv)
	}

	if last, ok := g.LastMove(); ok {
		mv := &MoveView{From: last.From.String(), To: last.To.String()}
		if last.Promotion != chess.NoPieceType {
			mv.Promotion = last.Promotion.String()
		}
		v.LastOpponentMove = mv
	}

	switch g.Status() {
	case chess.StatusCheck:
		v.Check = true
	case chess.StatusCheckmate:
		winner, _ := g.Winner()
		v.Checkmate = true
		v.GameFinished = true
		v.Winner = &winner
		v.GameFinishedReason = FinishReason(g)
	case chess.StatusStalemate:
		v.Stalemate = true
		v.GameFinished = true
		v.GameFinishedReason = FinishReason(g)
	}
	return v
}

// FinishReason describes how a finished game ended. It is empty while the game is running.
func FinishReason(g *chess.Game) string {
	switch g.Status() {
	case chess.StatusCheckmate:
		winner, _ := g.Winner()
		return fmt.Sprintf("Checkmate! %s wins!", winner)
	case chess.StatusStalemate:
		return "Game finished with a stalemate draw!"
	}
	return ""
}

func summarize(rec store.Game) Summary {
	return Summary{
		GameID:         rec.ID,
		Status:         rec.State.Status(),
		CurrentPlayer:  rec.State.CurrentPlayer(),
		MoveCount:      rec.State.MoveCount(),
		OpponentJoined: rec.SecondPlayerJoined,
		CreatedAt:      rec.CreatedAt,
	}
}
