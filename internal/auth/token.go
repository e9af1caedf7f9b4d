package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/academic-erp/internal/config"
)

// TokenManager issues and validates signed bearer tokens whose subject is an employee email.
type TokenManager struct {
	key    []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// Claims describes the JWT payload.
type Claims struct {
	jwt.RegisteredClaims
}

// NewTokenManager builds a manager from the auth configuration.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) (*TokenManager, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm())
	hmacMethod, ok := method.(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	key, err := DeriveSigningKey(cfg.JWTSecret, hmacMethod.Hash.Size())
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}

	ttl := cfg.AccessTokenTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}

	tm := &TokenManager{
		key:    key,
		method: hmacMethod,
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Issue builds and signs a token for subject.
func (tm *TokenManager) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("subject required")
	}
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tm.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(tm.method, claims)
	signed, err := token.SignedString(tm.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// ExtractSubject reads the subject without checking the signature.
func (tm *TokenManager) ExtractSubject(tokenStr string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return "", ErrMalformedToken
	}
	if claims.Subject == "" {
		return "", ErrMalformedToken
	}
	return claims.Subject, nil
}

// Verify checks signature, expiry, issuer and that the subject equals expectedSubject.
func (tm *TokenManager) Verify(tokenStr, expectedSubject string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tm.now),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tm.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return ErrMalformedToken
		}
		return ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != expectedSubject {
		return ErrSubjectMismatch
	}
	return nil
}

// Validate reports whether the token is currently valid for expectedSubject.
func (tm *TokenManager) Validate(tokenStr, expectedSubject string) bool {
	return tm.Verify(tokenStr, expectedSubject) == nil
}
