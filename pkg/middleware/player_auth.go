package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName is read when no Authorization header is sent
const AuthCookieName = "pantheon_auth_token"

// AuthenticatedPlayer is the identity extracted from a bearer token
type AuthenticatedPlayer struct {
	PlayerID  string
	ExpiresAt time.Time
}

// PlayerAuth validates HS256 player tokens issued by the game server
type PlayerAuth struct {
	secret []byte
	now    func() time.Time
}

func NewPlayerAuth(secret string) *PlayerAuth {
	return &PlayerAuth{secret: []byte(secret), now: time.Now}
}

// IssueToken signs a token for playerID valid for ttl
func (a *PlayerAuth) IssueToken(playerID string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":       playerID,
		"player_id": playerID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and returns its player
func (a *PlayerAuth) ValidateToken(tokenString string) (*AuthenticatedPlayer, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid JWT claims")
	}

	playerID, _ := claims["player_id"].(string)
	if playerID == "" {
		playerID, _ = claims.GetSubject()
	}
	if playerID == "" {
		return nil, errors.New("token has no player id")
	}

	player := &AuthenticatedPlayer{PlayerID: playerID}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		player.ExpiresAt = exp.Time
	}
	return player, nil
}

// Authenticate resolves the player from an Authorization header or auth
// cookie, returning huma 401 errors
func (a *PlayerAuth) Authenticate(authHeader, cookieHeader string) (*AuthenticatedPlayer, error) {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		token = extractCookieToken(cookieHeader)
	}
	if token == "" {
		return nil, huma.Error401Unauthorized("Authentication required")
	}

	player, err := a.ValidateToken(token)
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid authentication token", err)
	}
	return player, nil
}

// ExtractBearerToken returns the token of a "Bearer <token>" header
func ExtractBearerToken(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return strings.TrimSpace(authHeader[len(prefix):])
	}
	return ""
}

func extractCookieToken(cookieHeader string) string {
	for _, cookie := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(cookie), "=")
		if ok && name == AuthCookieName {
			return value
		}
	}
	return ""
}

type playerContextKey struct{}

// WithPlayer stores player in ctx
func WithPlayer(ctx context.Context, player *AuthenticatedPlayer) context.Context {
	return context.WithValue(ctx, playerContextKey{}, player)
}

// PlayerFromContext returns the player stored by WithPlayer
func PlayerFromContext(ctx context.Context) (*AuthenticatedPlayer, bool) {
	player, ok := ctx.Value(playerContextKey{}).(*AuthenticatedPlayer)
	return player, ok
}
