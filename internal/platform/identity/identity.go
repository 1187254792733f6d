// Package identity verifies bearer tokens and turns them into the caller
// identity carried on the request context.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves a raw token into request data.
type Verifier interface {
	Verify(ctx context.Context, token string) (*ctxutil.RequestData, error)
}

type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Secret:   envutil.String("JWT_SECRET_KEY", ""),
		Issuer:   envutil.String("JWT_ISSUER", ""),
		Audience: envutil.String("JWT_AUDIENCE", ""),
		TTL:      envutil.Duration("JWT_ACCESS_TTL_SECONDS", 24*time.Hour),
	}
}

// HMAC signs and verifies HS256 tokens with a shared secret.
type HMAC struct {
	secret []byte
	cfg    Config
}

func NewHMAC(cfg Config) (*HMAC, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &HMAC{secret: []byte(cfg.Secret), cfg: cfg}, nil
}

func (h *HMAC) Verify(_ context.Context, token string) (*ctxutil.RequestData, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if h.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.cfg.Issuer))
	}
	if h.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(h.cfg.Audience))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return h.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &ctxutil.RequestData{
		TokenString: token,
		UserID:      claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Picture:     claims.Picture,
	}, nil
}

// Issue signs a token for userID. Used by the dev CLI and tests.
func (h *HMAC) Issue(userID, email, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    h.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TTL)),
		},
	}
	if h.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{h.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}
