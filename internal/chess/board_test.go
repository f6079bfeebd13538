package chess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMoveNoValidateLeavesSourceBoard(t *testing.T) {
	b := StartBoard()
	next := b.ApplyMoveNoValidate(Move{From: sq(t, "g1"), To: sq(t, "f3")})

	_, ok := b.At(sq(t, "g1"))
	assert.True(t, ok)
	_, ok = b.At(sq(t, "f3"))
	assert.False(t, ok)

	p, ok := next.At(sq(t, "f3"))
	require.True(t, ok)
	assert.Equal(t, Knight, p.Type)
	assert.Equal(t, sq(t, "f3"), p.Position)
}

func TestApplyMoveNoValidateCapture(t *testing.T) {
	b := place(t, "Qd1", "qd8")
	next := b.ApplyMoveNoValidate(Move{From: sq(t, "d1"), To: sq(t, "d8")})

	assert.Equal(t, 0, next.Count(Black))
	p, ok := next.At(sq(t, "d8"))
	require.True(t, ok)
	assert.Equal(t, White, p.Color)
}

func TestApplyMoveNoValidateSpecialMoves(t *testing.T) {
	tests := []struct {
		name   string
		board  []string
		move   Move
		want   []string
		absent []string
	}{
		{
			name:   "king side castle",
			board:  []string{"Ke1", "Rh1"},
			move:   Move{From: Pos(5, 1), To: Pos(7, 1)},
			want:   []string{"Kg1", "Rf1"},
			absent: []string{"e1", "h1"},
		},
		{
			name:   "queen side castle",
			board:  []string{"ke8", "ra8"},
			move:   Move{From: Pos(5, 8), To: Pos(3, 8)},
			want:   []string{"kc8", "rd8"},
			absent: []string{"a8", "b8", "e8"},
		},
		{
			name:   "white en passant",
			board:  []string{"Pe5", "pd5"},
			move:   Move{From: Pos(5, 5), To: Pos(4, 6)},
			want:   []string{"Pd6"},
			absent: []string{"d5", "e5"},
		},
		{
			name:   "black en passant",
			board:  []string{"pf4", "Pe4"},
			move:   Move{From: Pos(6, 4), To: Pos(5, 3)},
			want:   []string{"pe3"},
			absent: []string{"e4", "f4"},
		},
		{
			name:   "promotion",
			board:  []string{"Pa7"},
			move:   Move{From: Pos(1, 7), To: Pos(1, 8), Promotion: Rook},
			want:   []string{"Ra8"},
			absent: []string{"a7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := place(t, tt.board...).ApplyMoveNoValidate(tt.move)
			expected := place(t, tt.want...)
			for _, p := range expected.AllPieces() {
				got, ok := next.At(p.Position)
				if assert.True(t, ok, "expected piece on %s", p.Position) {
					assert.Equal(t, p, got)
				}
			}
			for _, s := range tt.absent {
				_, ok := next.At(sq(t, s))
				assert.False(t, ok, "expected %s empty", s)
			}
		})
	}
}

func TestBoardAttacks(t *testing.T) {
	b := place(t, "Pe4", "Ke1", "ke8")

	assert.True(t, b.SquareAttacked(sq(t, "d5"), White))
	assert.True(t, b.SquareAttacked(sq(t, "f5"), White))
	assert.False(t, b.SquareAttacked(sq(t, "e5"), White), "pawns do not capture forward")
	assert.True(t, b.SquareAttacked(sq(t, "d7"), Black))
	assert.False(t, b.KingAttacked(White))
}

func TestBoardString(t *testing.T) {
	want := "8 rnbqkbnr\n" +
		"7 pppppppp\n" +
		"6 ........\n" +
		"5 ........\n" +
		"4 ........\n" +
		"3 ........\n" +
		"2 PPPPPPPP\n" +
		"1 RNBQKBNR\n" +
		"  abcdefgh"
	assert.Equal(t, want, StartBoard().String())
}

func TestPiecesInBoardOrder(t *testing.T) {
	b := place(t, "Rh8", "Ka1", "Nc3")
	ps := b.Pieces(White)
	require.Len(t, ps, 3)
	assert.Equal(t, "a1", ps[0].Position.String())
	assert.Equal(t, "c3", ps[1].Position.String())
	assert.Equal(t, "h8", ps[2].Position.String())
}
