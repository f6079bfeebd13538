package chess

type GameStatus string

const (
	StatusNormal    GameStatus = "NORMAL"
	StatusCheck     GameStatus = "CHECK"
	StatusCheckmate GameStatus = "CHECKMATE"
	StatusStalemate GameStatus = "DRAW_STALEMATE"
)

// Terminal reports whether the status ends the game.
func (s GameStatus) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

// MaterialCount represents the material count for both sides
type MaterialCount struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// StandardPieceValues maps piece types to their standard values
var StandardPieceValues = map[PieceType]int{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0, // King has no material value
}
