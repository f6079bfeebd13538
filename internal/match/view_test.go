package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/store"
)

func TestProjectStatusFlags(t *testing.T) {
	tests := []struct {
		name      string
		state     *chess.Game
		status    chess.GameStatus
		check     bool
		checkmate bool
		stalemate bool
	}{
		{
			name:   "start",
			state:  chess.Start(),
			status: chess.StatusNormal,
		},
		{
			name: "check",
			state: chess.NewGame(chess.White, chess.NewBoard(
				chess.NewPiece(chess.King, chess.Pos(5, 1), chess.White),
				chess.NewPiece(chess.Rook, chess.Pos(5, 8), chess.Black),
				chess.NewPiece(chess.King, chess.Pos(1, 8), chess.Black),
			)),
			status: chess.StatusCheck,
			check:  true,
		},
		{
			name: "back rank mate",
			state: chess.NewGame(chess.Black, chess.NewBoard(
				chess.NewPiece(chess.King, chess.Pos(8, 8), chess.Black),
				chess.NewPiece(chess.Pawn, chess.Pos(7, 7), chess.Black),
				chess.NewPiece(chess.Pawn, chess.Pos(8, 7), chess.Black),
				chess.NewPiece(chess.Rook, chess.Pos(1, 8), chess.White),
				chess.NewPiece(chess.King, chess.Pos(7, 1), chess.White),
			)),
			status:    chess.StatusCheckmate,
			checkmate: true,
		},
		{
			name: "stalemate",
			state: chess.NewGame(chess.Black, chess.NewBoard(
				chess.NewPiece(chess.King, chess.Pos(8, 8), chess.Black),
				chess.NewPiece(chess.Queen, chess.Pos(6, 7), chess.White),
				chess.NewPiece(chess.King, chess.Pos(7, 6), chess.White),
			)),
			status:    chess.StatusStalemate,
			stalemate: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.status, tt.state.Status())
			v := Project(store.Game{ID: "g", State: tt.state, SecondPlayerJoined: true}, "")

			assert.Equal(t, tt.status, v.Status)
			assert.Equal(t, tt.check, v.Check)
			assert.Equal(t, tt.checkmate, v.Checkmate)
			assert.Equal(t, tt.stalemate, v.Stalemate)
			assert.Equal(t, tt.checkmate || tt.stalemate, v.GameFinished)
		})
	}
}
