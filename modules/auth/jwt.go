package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/jobboard-realtime/domain/identity"
)

var (
	// ErrInvalidToken is returned when the token signature or shape is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Config holds token verification configuration.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
	Issuer        string
}

// DefaultConfig returns the default configuration. The secret key is taken
// from JWT_SECRET when set.
func DefaultConfig() Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-in-production"
	}
	return Config{
		SecretKey:     secret,
		TokenDuration: 24 * time.Hour,
		Issuer:        "jobboard",
	}
}

// Claims are the custom claims embedded in connection tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier verifies bearer tokens and resolves them to identities.
type Verifier struct {
	config Config
}

// NewVerifier creates a Verifier with the given configuration.
func NewVerifier(config Config) *Verifier {
	return &Verifier{config: config}
}

// GenerateToken issues a signed token for the given user. The job-board's
// login flow is the real issuer; this exists for tooling and tests.
func (v *Verifier) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.config.SecretKey))
}

// Verify validates the token signature and expiry and returns the embedded
// identity. It never touches storage; existence of the user is the session
// layer's concern.
func (v *Verifier) Verify(tokenString string) (*identity.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(v.config.SecretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &identity.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
