package auth

import (
	"crypto/subtle"
	"errors"
	"sync"

	"mercator-hq/miarh/pkg/config"
)

var (
	// ErrInvalidToken is returned for tokens that match no configured entry.
	ErrInvalidToken = errors.New("invalid admin token")

	// ErrTokenDisabled is returned for configured but disabled tokens.
	ErrTokenDisabled = errors.New("admin token disabled")
)

// Token is one named admin credential.
type Token struct {
	Name    string
	Secret  string
	Enabled bool
}

// TokenValidator checks presented secrets against the configured tokens.
type TokenValidator struct {
	mu     sync.RWMutex
	tokens []*Token
}

// NewTokenValidator creates a validator for tokens.
func NewTokenValidator(tokens []*Token) *TokenValidator {
	return &TokenValidator{tokens: tokens}
}

// FromConfig builds a validator from the admin section.
func FromConfig(cfg config.AdminAuthConfig) *TokenValidator {
	tokens := make([]*Token, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens = append(tokens, &Token{
			Name:    t.Name,
			Secret:  t.Token,
			Enabled: !t.Disabled,
		})
	}
	return NewTokenValidator(tokens)
}

// Validate returns the token whose secret equals secret. Every token is
// compared so the time taken does not depend on which one matched.
func (v *TokenValidator) Validate(secret string) (*Token, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var match *Token
	for _, t := range v.tokens {
		if subtle.ConstantTimeCompare([]byte(t.Secret), []byte(secret)) == 1 && match == nil {
			match = t
		}
	}
	if match == nil || secret == "" {
		return nil, ErrInvalidToken
	}
	if !match.Enabled {
		return nil, ErrTokenDisabled
	}
	return match, nil
}

// Len returns the number of configured tokens.
func (v *TokenValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.tokens)
}

// Add registers a token, replacing any token with the same name.
func (v *TokenValidator) Add(t *Token) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, existing := range v.tokens {
		if existing.Name == t.Name {
			v.tokens[i] = t
			return
		}
	}
	v.tokens = append(v.tokens, t)
}

// Remove drops the token with the given name.
func (v *TokenValidator) Remove(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, t := range v.tokens {
		if t.Name == name {
			v.tokens = append(v.tokens[:i], v.tokens[i+1:]...)
			return
		}
	}
}
