package chess

var (
	pawnStartRank = [2]int{White: 2, Black: 7}
	enPassantRank = [2]int{White: 5, Black: 4}
	backRank      = [2]int{White: 1, Black: 8}

	kingHome = [2]Position{White: {X: 5, Y: 1}, Black: {X: 5, Y: 8}}
)

func pawnForward(c Color) Direction {
	if c == White {
		return DirUp
	}
	return DirDown
}

func pawnBackward(c Color) Direction {
	if c == White {
		return DirDown
	}
	return DirUp
}

func (p Piece) pawnMoves(g *Game) SquareSet {
	fwd := pawnForward(p.Color)
	f1, ok := p.Position.Step(fwd)
	if !ok {
		return 0
	}

	var moves SquareSet
	if g.Empty(f1) {
		moves = moves.Add(f1)
		if p.Position.Y == pawnStartRank[p.Color] {
			if f2, ok := f1.Step(fwd); ok && g.Empty(f2) {
				moves = moves.Add(f2)
			}
		}
	}

	for _, side := range []Direction{DirLeft, DirRight} {
		diag, ok := f1.Step(side)
		if !ok {
			continue
		}
		if occupant, ok := g.board.At(diag); ok && occupant.Color != p.Color {
			moves = moves.Add(diag)
		}
	}

	if to, ok := p.enPassant(g); ok {
		moves = moves.Add(to)
	}
	return moves
}

// enPassant returns the capture square when the previous move was an opposing pawn
// advancing two ranks to land beside p.
func (p Piece) enPassant(g *Game) (Position, bool) {
	if p.Position.Y != enPassantRank[p.Color] {
		return Position{}, false
	}
	last, ok := g.LastMove()
	if !ok {
		return Position{}, false
	}

	fwd := pawnForward(p.Color)
	for _, side := range []Direction{DirLeft, DirRight} {
		beside, ok := p.Position.Step(side)
		if !ok || last.To != beside {
			continue
		}
		victim, ok := g.board.At(beside)
		if !ok || victim.Type != Pawn || victim.Color == p.Color {
			continue
		}
		target, ok := beside.Step(fwd)
		if !ok || !g.Empty(target) {
			continue
		}
		if origin, ok := target.Step(fwd); ok && last.From == origin {
			return target, true
		}
	}
	return Position{}, false
}

func (p Piece) castlingMoves(g *Game) SquareSet {
	home := kingHome[p.Color]
	if p.Position != home || g.touched(home) {
		return 0
	}
	if g.board.SquareAttacked(home, p.Color.Negate()) {
		return 0
	}

	var moves SquareSet
	if to, ok := p.castleTowards(g, DirRight, 2); ok {
		moves = moves.Add(to)
	}
	if to, ok := p.castleTowards(g, DirLeft, 3); ok {
		moves = moves.Add(to)
	}
	return moves
}

// castleTowards checks castling with the rook standing gap+1 squares from the king in
// direction d. The king always lands two squares away.
func (p Piece) castleTowards(g *Game, d Direction, gap int) (Position, bool) {
	between := make([]Position, 0, gap)
	cur := p.Position
	for i := 0; i < gap; i++ {
		next, ok := cur.Step(d)
		if !ok {
			return Position{}, false
		}
		between = append(between, next)
		cur = next
	}

	rookSquare, ok := cur.Step(d)
	if !ok {
		return Position{}, false
	}
	rook, ok := g.board.At(rookSquare)
	if !ok || rook.Type != Rook || rook.Color != p.Color || g.touched(rookSquare) {
		return Position{}, false
	}

	for _, sq := range between {
		if !g.Empty(sq) {
			return Position{}, false
		}
	}
	opponent := p.Color.Negate()
	for _, sq := range between[:2] {
		if g.board.SquareAttacked(sq, opponent) {
			return Position{}, false
		}
	}
	return between[1], true
}
