package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const staffIssuer = "swimintake"

var (
	// ErrInvalidCredentials is returned for a wrong staff password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a missing, expired or forged staff token
	ErrInvalidToken = errors.New("invalid staff token")
)

// StaffClaims are the claims carried in the staff session cookie
type StaffClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// StaffAuth checks the shared staff password and issues signed session tokens
type StaffAuth struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewStaffAuth returns a StaffAuth for a bcrypt password hash and an HS256 signing secret
func NewStaffAuth(passwordHash, secret string, ttl time.Duration) (*StaffAuth, error) {
	if passwordHash == "" {
		return nil, fmt.Errorf("staff password hash is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid staff password hash: %w", err)
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("staff token secret must be at least 16 bytes")
	}
	return &StaffAuth{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// HashPassword returns a bcrypt hash suitable for STAFF_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the password and returns a signed token and its expiry
func (a *StaffAuth) Login(password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now()
	expires := now.Add(a.ttl)
	claims := StaffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    staffIssuer,
			Subject:   "staff",
			ID:        GenerateSessionID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: "staff",
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign staff token: %w", err)
	}
	return token, expires, nil
}

// Verify parses a staff token and returns its claims
func (a *StaffAuth) Verify(token string) (*StaffClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(staffIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	claims := &StaffClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != "staff" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
