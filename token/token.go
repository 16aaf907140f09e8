// token/token.go - Signed token issuance and verification
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"lifequest/apperrors"
)

// Kind selects which signing secret and default lifetime a token uses.
// Access, refresh and email-verification tokens are signed with disjoint
// secrets so that leaking one kind's secret cannot forge the others.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
	KindEmail
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	case KindEmail:
		return "email"
	default:
		return "unknown"
	}
}

// Config carries the per-kind secrets and default lifetimes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	EmailSecret   string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration
}

type signer struct {
	secret []byte
	ttl    time.Duration
}

// Manager issues and verifies HS256 tokens. One instance is constructed at
// startup and shared; it is safe for concurrent use.
type Manager struct {
	signers map[Kind]signer
}

// NewManager validates the config and builds a Manager. Empty secrets or a
// secret shared between kinds are configuration defects and are rejected.
func NewManager(cfg Config) (*Manager, error) {
	secrets := map[Kind]string{
		KindAccess:  cfg.AccessSecret,
		KindRefresh: cfg.RefreshSecret,
		KindEmail:   cfg.EmailSecret,
	}

	seen := make(map[string]Kind, len(secrets))
	for kind, secret := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("token: empty secret for %s tokens", kind)
		}
		if other, dup := seen[secret]; dup {
			return nil, fmt.Errorf("token: %s and %s tokens share a secret", other, kind)
		}
		seen[secret] = kind
	}

	return &Manager{
		signers: map[Kind]signer{
			KindAccess:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			KindRefresh: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
			KindEmail:   {secret: []byte(cfg.EmailSecret), ttl: cfg.EmailTTL},
		},
	}, nil
}

// Issue signs a token of the given kind for subject. The optional ttl
// overrides the kind's default lifetime.
func (m *Manager) Issue(kind Kind, subject string, ttl ...time.Duration) (string, error) {
	if subject == "" {
		return "", apperrors.ErrInvalidClaims
	}

	s, ok := m.signers[kind]
	if !ok {
		return "", fmt.Errorf("token: unknown kind %d", kind)
	}

	validity := s.ttl
	if len(ttl) > 0 {
		validity = ttl[0]
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry under the given kind's secret and
// returns the subject claim. Every failure mode (malformed string, bad
// signature, token of another kind, expired) collapses to ErrInvalidToken;
// callers are not told which one occurred.
func (m *Manager) Verify(kind Kind, tokenString string) (string, error) {
	s, ok := m.signers[kind]
	if !ok {
		return "", fmt.Errorf("token: unknown kind %d", kind)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s token: %v", apperrors.ErrInvalidToken, kind, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", apperrors.ErrInvalidToken
	}

	return claims.Subject, nil
}
