package chess

import "errors"

var (
	// ErrInvalidMove rejects a move; the game it was attempted on is unchanged.
	ErrInvalidMove = errors.New("invalid move")
	// ErrInvalidFormat rejects a malformed square, color or piece type.
	ErrInvalidFormat = errors.New("invalid format")
)
