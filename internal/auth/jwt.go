package auth

import (
	"crypto/ecdsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/justinabrahms/pollchess/internal/chess"
	"github.com/justinabrahms/pollchess/internal/store"
)

var ErrInvalidToken = errors.New("invalid player token")

// Claims are carried by every player credential.
type Claims struct {
	GameID string      `json:"gid"`
	Color  chess.Color `json:"color"`
	jwt.RegisteredClaims
}

// Issuer signs and checks player credentials with an ES256 key.
type Issuer struct {
	key    *ecdsa.PrivateKey
	issuer string
	now    func() time.Time
}

func NewIssuer(key *ecdsa.PrivateKey, issuer string) *Issuer {
	return &Issuer{key: key, issuer: issuer, now: time.Now}
}

// Issue creates the credential for one side of a game.
func (i *Issuer) Issue(gameID string, c chess.Color) (string, error) {
	claims := Claims{
		GameID: gameID,
		Color:  c,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   i.issuer,
			IssuedAt: jwt.NewNumericDate(i.now()),
			ID:       uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and issuer of a credential and returns its claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return &i.key.PublicKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.GameID == "" {
		return Claims{}, fmt.Errorf("%w: missing game id", ErrInvalidToken)
	}
	return claims, nil
}

// Authorize checks that token is the credential rec issued to color c.
func (i *Issuer) Authorize(rec store.Game, token string, c chess.Color) error {
	if token == "" {
		return fmt.Errorf("%w: no token supplied", ErrInvalidToken)
	}
	expected := rec.Token(c)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) != 1 {
		return fmt.Errorf("%w: token does not belong to %s", ErrInvalidToken, c)
	}

	claims, err := i.Verify(token)
	if err != nil {
		return err
	}
	if claims.GameID != rec.ID || claims.Color != c {
		return fmt.Errorf("%w: claims do not match game %s as %s", ErrInvalidToken, rec.ID, c)
	}
	return nil
}

// ColorOf resolves which side of rec token was issued to.
func (i *Issuer) ColorOf(rec store.Game, token string) (chess.Color, error) {
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if err := i.Authorize(rec, token, c); err == nil {
			return c, nil
		}
	}
	return chess.White, fmt.Errorf("%w: token is not a participant of game %s", ErrInvalidToken, rec.ID)
}
