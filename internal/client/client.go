package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justinabrahms/pollchess/internal/match"
	"github.com/justinabrahms/pollchess/internal/web"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s, %d): %s", e.Message, e.Code, e.Status, e.Details)
	}
	return fmt.Sprintf("%s (%s, %d)", e.Message, e.Code, e.Status)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Code == code
}

// Client talks to one game server as at most one player at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client

	gameID string
	token  string
	side   string
}

// NewClient creates a client for the server at baseURL. Requests carry no timeout of their
// own; bound them through the context, keeping in mind that waits last up to the server's
// wait bound.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (c *Client) GameID() string { return c.gameID }
func (c *Client) Side() string   { return c.side }

// Seat adopts an existing player credential.
func (c *Client) Seat(gameID, token string) {
	c.gameID = gameID
	c.token = token
}

func (c *Client) seat(conn match.Connection) {
	c.gameID = conn.GameID
	c.token = conn.Token
	c.side = conn.PlayerSide.String()
}

// Host creates a game and seats the client as White.
func (c *Client) Host(ctx context.Context) (match.Connection, error) {
	var conn match.Connection
	if err := c.do(ctx, "POST", "/api/game/host", false, nil, &conn); err != nil {
		return match.Connection{}, fmt.Errorf("failed to host game: %w", err)
	}
	c.seat(conn)
	return conn, nil
}

// Join takes the second seat of gameID as Black.
func (c *Client) Join(ctx context.Context, gameID string) (match.Connection, error) {
	var conn match.Connection
	if err := c.do(ctx, "POST", "/api/game/"+gameID+"/join", false, nil, &conn); err != nil {
		return match.Connection{}, fmt.Errorf("failed to join game: %w", err)
	}
	c.seat(conn)
	return conn, nil
}

// Move submits a move in coordinate form, e.g. "e2e4" or "e7e8n".
func (c *Client) Move(ctx context.Context, uci string) (match.View, error) {
	if len(uci) != 4 && len(uci) != 5 {
		return match.View{}, fmt.Errorf("move %q: want from and to squares like e2e4", uci)
	}
	req := web.MoveRequest{From: uci[0:2], To: uci[2:4], Promotion: uci[4:]}

	var view match.View
	if err := c.do(ctx, "POST", c.gamePath("/move"), true, req, &view); err != nil {
		return match.View{}, fmt.Errorf("failed to move %s: %w", uci, err)
	}
	return view, nil
}

// WaitForTurn blocks until it is this player's turn or the game is over.
func (c *Client) WaitForTurn(ctx context.Context) (match.View, error) {
	var view match.View
	if err := c.do(ctx, "POST", c.gamePath("/wait-for-my-move"), true, nil, &view); err != nil {
		return match.View{}, err
	}
	return view, nil
}

// Game fetches the current view; as a spectator when the client is not seated.
func (c *Client) Game(ctx context.Context, gameID string) (match.View, error) {
	var view match.View
	authed := c.token != "" && gameID == c.gameID
	if err := c.do(ctx, "GET", "/api/game/"+gameID, authed, nil, &view); err != nil {
		return match.View{}, fmt.Errorf("failed to fetch game: %w", err)
	}
	return view, nil
}

// Games lists the games on the server.
func (c *Client) Games(ctx context.Context) ([]web.GameIndex, error) {
	var resp struct {
		Games []web.GameIndex `json:"games"`
	}
	if err := c.do(ctx, "GET", "/api/games", false, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return resp.Games, nil
}

func (c *Client) gamePath(suffix string) string {
	return "/api/game/" + c.gameID + suffix
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, body, result interface{}) error {
	if authed && c.token == "" {
		return fmt.Errorf("not seated in a game")
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set(web.TokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp web.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Error
			apiErr.Details = errResp.Details
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Ping checks the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.do(ctx, "GET", "/api/health", false, nil, nil)
}
