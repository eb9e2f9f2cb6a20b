package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that fails verification.
// Expired tokens are intentionally not distinguished from forged or malformed ones.
var ErrInvalidToken = errors.New("invalid or expired token")

func init() {
	// Claims keep millisecond precision so exp is never truncated below issuance+TTL.
	jwt.TimePrecision = time.Millisecond
}

// DefaultTokenTTL is the validity window used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig holds the process-wide signing configuration.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

// TokenIssuer signs and verifies bearer tokens carrying a subject identifier.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer validates cfg and builds an issuer. Only HMAC algorithms are accepted.
func NewTokenIssuer(cfg TokenConfig, opts ...TokenOption) (*TokenIssuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	alg := strings.ToUpper(strings.TrimSpace(cfg.Algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	t := &TokenIssuer{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// TTL returns the validity window of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for subject expiring TTL after now.
func (t *TokenIssuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
func (t *TokenIssuer) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
