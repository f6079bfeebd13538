package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinabrahms/pollchess/internal/auth"
	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/match"
	"github.com/justinabrahms/pollchess/internal/store"
	"github.com/justinabrahms/pollchess/internal/web"
)

type server struct {
	url     string
	journal *store.Journal
}

// startServer wires the full stack the way cmd/chessd does, journaling to a temp database.
func startServer(t *testing.T, waitTimeout time.Duration) *server {
	t.Helper()

	key, err := auth.GenerateKey()
	require.NoError(t, err)
	journal, err := store.OpenJournal(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)

	games := match.NewService(store.NewMemoryStore(), auth.NewIssuer(key, "pollchess"), match.Options{
		WaitTimeout: waitTimeout,
		Journal:     journal,
	})
	watchers := web.NewHub()
	games.Observe(watchers.Publish)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = games.Run(ctx)
	}()
	go watchers.Run(ctx)

	srv := httptest.NewServer(web.NewService(games, watchers).Router())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		_ = journal.Close()
	})
	return &server{url: srv.URL, journal: journal}
}

type player struct {
	srv  *server
	conn match.Connection
}

func (s *server) call(method, path, token string, body, out interface{}) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequest(method, s.url+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(web.TokenHeader, token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *server) host(t *testing.T) *player {
	t.Helper()
	p := &player{srv: s}
	status, err := s.call("POST", "/api/game/host", "", nil, &p.conn)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)
	return p
}

func (s *server) join(t *testing.T, gameID string) *player {
	t.Helper()
	p := &player{srv: s}
	status, err := s.call("POST", "/api/game/"+gameID+"/join", "", nil, &p.conn)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	return p
}

func (p *player) wait() (match.View, error) {
	var v match.View
	status, err := p.srv.call("POST", "/api/game/"+p.conn.GameID+"/wait-for-my-move", p.conn.Token, nil, &v)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("wait returned %d", status)
	}
	return v, err
}

func (p *player) move(uci string) (match.View, error) {
	m, err := chess.ParseUCI(uci)
	if err != nil {
		return match.View{}, err
	}
	body := web.MoveRequest{From: m.From.String(), To: m.To.String()}
	var v match.View
	status, err := p.srv.call("POST", "/api/game/"+p.conn.GameID+"/move", p.conn.Token, body, &v)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("move %s returned %d", uci, status)
	}
	return v, err
}

// play waits for each turn before moving, then waits once more unless its own move ended the game.
func (p *player) play(moves []string) (match.View, error) {
	var last match.View
	for _, uci := range moves {
		v, err := p.wait()
		if err != nil {
			return match.View{}, err
		}
		if !v.MyTurn || v.GameFinished {
			return match.View{}, fmt.Errorf("expected to move %s, got myTurn=%v finished=%v", uci, v.MyTurn, v.GameFinished)
		}
		if last, err = p.move(uci); err != nil {
			return match.View{}, err
		}
	}
	if last.GameFinished {
		return last, nil
	}
	return p.wait()
}

// TestQueenMate plays e4 e5 Qh5 Ke7 Qxe5# with both players long-polling in parallel.
func TestQueenMate(t *testing.T) {
	srv := startServer(t, time.Minute)

	white := srv.host(t)
	assert.Equal(t, chess.White, white.conn.PlayerSide)

	// White's first wait blocks until Black joins.
	whiteMoves := []string{"e2e4", "d1h5", "h5e5"}
	blackMoves := []string{"e7e5", "e8e7"}

	type outcome struct {
		view match.View
		err  error
	}
	whiteDone := make(chan outcome, 1)
	go func() {
		v, err := white.play(whiteMoves)
		whiteDone <- outcome{v, err}
	}()

	time.Sleep(50 * time.Millisecond)
	black := srv.join(t, white.conn.GameID)
	assert.Equal(t, chess.Black, black.conn.PlayerSide)

	blackDone := make(chan outcome, 1)
	go func() {
		v, err := black.play(blackMoves)
		blackDone <- outcome{v, err}
	}()

	for _, ch := range []chan outcome{whiteDone, blackDone} {
		select {
		case o := <-ch:
			require.NoError(t, o.err)
			assert.True(t, o.view.GameFinished)
			assert.True(t, o.view.Checkmate)
			assert.False(t, o.view.Check)
			assert.False(t, o.view.MyTurn)
			assert.Equal(t, "Checkmate! WHITE wins!", o.view.GameFinishedReason)
			require.NotNil(t, o.view.Winner)
			assert.Equal(t, chess.White, *o.view.Winner)
		case <-time.After(10 * time.Second):
			t.Fatal("game did not finish")
		}
	}

	gameID := white.conn.GameID
	require.Eventually(t, func() bool {
		rec, err := srv.journal.Game(gameID)
		return err == nil && rec.FinishedAt != nil
	}, 2*time.Second, 10*time.Millisecond)

	rec, err := srv.journal.Game(gameID)
	require.NoError(t, err)
	assert.Equal(t, "CHECKMATE", rec.Status)
	assert.Equal(t, "WHITE", rec.Winner)

	moves, err := srv.journal.Moves(gameID)
	require.NoError(t, err)
	require.Len(t, moves, 5)
	var played []string
	for _, m := range moves {
		played = append(played, m.MoveUCI)
	}
	assert.Equal(t, []string{"e2e4", "e7e5", "d1h5", "e8e7", "h5e5"}, played)
	assert.Equal(t, "BLACK", moves[3].PlayerColor)
}

func TestPromotionOverHTTP(t *testing.T) {
	srv := startServer(t, time.Minute)
	white := srv.host(t)
	black := srv.join(t, white.conn.GameID)

	line := []struct {
		p   *player
		uci string
	}{
		{white, "h2h4"}, {black, "g7g5"}, {white, "h4g5"}, {black, "f8g7"},
		{white, "g5g6"}, {black, "a7a6"}, {white, "g6h7"}, {black, "a6a5"},
	}
	for _, step := range line {
		_, err := step.p.move(step.uci)
		require.NoError(t, err, step.uci)
	}

	var v match.View
	status, err := srv.call("POST", "/api/game/"+white.conn.GameID+"/move", white.conn.Token,
		web.MoveRequest{From: "h7", To: "g8", Promotion: "knight"}, &v)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, v.LastOpponentMove)
	assert.Equal(t, "KNIGHT", v.LastOpponentMove.Promotion)

	for _, p := range v.Pieces {
		if p.Position == "g8" {
			assert.Equal(t, chess.Knight, p.PieceType)
			assert.Equal(t, chess.White, p.Color)
		}
	}
}

func TestWaitTimesOut(t *testing.T) {
	srv := startServer(t, 100*time.Millisecond)
	white := srv.host(t)
	black := srv.join(t, white.conn.GameID)

	start := time.Now()
	status, err := srv.call("POST", "/api/game/"+black.conn.GameID+"/wait-for-my-move", black.conn.Token, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestTimeout, status)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	// The timed out player can wait again and is woken by the next move.
	done := make(chan error, 1)
	go func() {
		_, err := black.wait()
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	_, err = white.move("e2e4")
	require.NoError(t, err)
	assert.NoError(t, <-done)
}
