package gcal

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"calendar-service/internal/model"
)

const (
	DefaultStateTTL = 10 * time.Minute
	stateAudience   = "google-oauth-state"
	// stateKeySuffix separates the state key from the API token key so a
	// state can never pass as a bearer token.
	stateKeySuffix = ":oauth-state"
)

// StateSigner issues and verifies the OAuth2 state parameter. A state is a
// short-lived HS256 token naming the caller that started the consent flow,
// and it is accepted at most once.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	used map[string]time.Time // state id -> expiry
}

// NewStateSigner derives its key from secret. A non-positive ttl selects
// DefaultStateTTL.
func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateSigner{
		key:  []byte(secret + stateKeySuffix),
		ttl:  ttl,
		now:  time.Now,
		used: map[string]time.Time{},
	}
}

// Issue returns a signed state for callerID.
func (s *StateSigner) Issue(callerID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   callerID,
		Audience:  jwt.ClaimStrings{stateAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return signed, nil
}

// Verify checks signature, audience and expiry of state and consumes it. It
// returns the caller the state was issued to. Every rejection wraps
// model.ErrInvalidArgument.
func (s *StateSigner) Verify(state string) (string, error) {
	if state == "" {
		return "", fmt.Errorf("%w: missing oauth state", model.ErrInvalidArgument)
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.ID == "" {
		return "", fmt.Errorf("%w: invalid oauth state", model.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.used {
		if now.After(exp) {
			delete(s.used, id)
		}
	}
	if _, seen := s.used[claims.ID]; seen {
		return "", fmt.Errorf("%w: oauth state already used", model.ErrInvalidArgument)
	}
	s.used[claims.ID] = claims.ExpiresAt.Time
	return claims.Subject, nil
}
