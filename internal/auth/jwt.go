package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"oversight/internal/domain"
)

// Claims is the token payload: the user id plus the registered claims.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	now := t.now()
	claims := Claims{
		ID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the user id the token names.
func (t *Tokens) Verify(token string) (uuid.UUID, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return uuid.Nil, domain.Unauthorized("token expired")
		}
		return uuid.Nil, domain.Unauthorized("invalid token")
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, domain.Unauthorized("invalid token")
	}
	return id, nil
}

// UserSource looks up the account a token names.
type UserSource interface {
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
}

// Authenticator turns a bearer token into an active user.
type Authenticator struct {
	tokens *Tokens
	users  UserSource
}

func NewAuthenticator(tokens *Tokens, users UserSource) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.Unauthorized("not authorized, token missing")
	}
	id, err := a.tokens.Verify(token)
	if err != nil {
		return domain.User{}, err
	}
	u, err := a.users.Get(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.User{}, domain.Unauthorized("user not found")
		}
		return domain.User{}, err
	}
	if !u.Active {
		return domain.User{}, domain.Unauthorized("account disabled")
	}
	return u, nil
}
