package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/util"
)

// ErrTokenInvalid is the single verification failure surfaced to
// callers. Bad signature, malformed payload, elapsed expiry and missing
// claims are deliberately indistinguishable.
var ErrTokenInvalid = errors.New("token invalid")

type TokenService struct {
	jwtSecretKey []byte
	accessTTL    time.Duration
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		jwtSecretKey: cfg.JwtSecretKey,
		accessTTL:    cfg.AccessTTL,
	}
}

type accessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (ts *TokenService) AccessTTL() time.Duration {
	return ts.accessTTL
}

// Issue signs a stateless access token for the principal. There is no
// refresh token and no revocation; the token dies only by expiry.
func (ts *TokenService) Issue(p models.Principal, now time.Time) (string, error) {
	return ts.IssueWithTTL(p, now, ts.accessTTL)
}

func (ts *TokenService) IssueWithTTL(p models.Principal, now time.Time, ttl time.Duration) (string, error) {
	claims := &accessClaims{
		UserID: p.UserID,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(ts.jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}

	return signedToken, nil
}

// Verify validates signature, expiry and required claims and rebuilds
// the principal from the payload. No database round-trip.
func (ts *TokenService) Verify(tokenStr string) (*models.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}

	parsedToken, err := jwt.ParseWithClaims(
		tokenStr,
		&accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return ts.jwtSecretKey, nil
		},
		opts...,
	)
	if err != nil || parsedToken == nil || !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(*accessClaims)
	if !ok || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &models.Principal{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Role:     role,
	}, nil
}
