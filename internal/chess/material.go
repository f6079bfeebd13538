package chess

// MaterialCount sums StandardPieceValues for each side.
func (g *Game) MaterialCount() MaterialCount {
	var mc MaterialCount
	for _, p := range g.board.Pieces(White) {
		mc.White += StandardPieceValues[p.Type]
	}
	for _, p := range g.board.Pieces(Black) {
		mc.Black += StandardPieceValues[p.Type]
	}
	return mc
}

// MaterialBalance is White's material minus Black's.
func (g *Game) MaterialBalance() int {
	mc := g.MaterialCount()
	return mc.White - mc.Black
}
