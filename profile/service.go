// Package profile handles wallet identity: connecting a browser wallet,
// resolving the on-chain profile metadata and minting session tokens.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotConnected signals no wallet session is active.
	ErrNotConnected = errors.New("profile: not connected")
	// ErrNoAccounts signals the wallet returned zero accounts.
	ErrNoAccounts = errors.New("profile: wallet returned no accounts")
)

// Wallet is the browser-extension boundary. RequestAccounts prompts the
// user and returns the accounts they approved.
type Wallet interface {
	RequestAccounts(ctx context.Context) ([]string, error)
}

// Resolver fetches profile metadata for an address, typically from the
// universal profile registry. Failures degrade to defaults and are not
// surfaced to the caller.
type Resolver interface {
	Resolve(ctx context.Context, address string) (Profile, error)
}

// Profile is the identity shown for the connected wallet.
type Profile struct {
	Address      string
	Name         string
	ProfileImage string
}

// Default display values used when no resolver is wired or resolution
// fails.
const (
	DefaultName         = "Your Profile"
	DefaultProfileImage = "https://i.pravatar.cc/150?img=5"
)

// Service owns the wallet connection state and session tokens.
type Service struct {
	mu      sync.RWMutex
	current *Profile

	wallet    Wallet
	resolver  Resolver
	jwtSecret []byte
	now       func() time.Time
}

// NewService creates a profile service. The resolver may be nil; every
// connection then gets the default display values.
func NewService(wallet Wallet, resolver Resolver, jwtSecret string) *Service {
	return &Service{
		wallet:    wallet,
		resolver:  resolver,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// WithClock overrides the time source used for token claims.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Connect prompts the wallet for accounts and establishes a session for
// the first one. Wallet refusal surfaces as the wallet's error; metadata
// resolution failure silently falls back to the default display values.
func (s *Service) Connect(ctx context.Context) (Profile, error) {
	accounts, err := s.wallet.RequestAccounts(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return Profile{}, ErrNoAccounts
	}

	p := Profile{
		Address:      accounts[0],
		Name:         DefaultName,
		ProfileImage: DefaultProfileImage,
	}
	if s.resolver != nil {
		if resolved, err := s.resolver.Resolve(ctx, p.Address); err == nil {
			if resolved.Name != "" {
				p.Name = resolved.Name
			}
			if resolved.ProfileImage != "" {
				p.ProfileImage = resolved.ProfileImage
			}
		}
	}

	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()

	return p, nil
}

// Disconnect drops the active session. Idempotent.
func (s *Service) Disconnect() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Current returns the connected profile.
func (s *Service) Current() (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Profile{}, ErrNotConnected
	}
	return *s.current, nil
}

// SessionToken mints a JWT for the connected wallet.
func (s *Service) SessionToken() (string, error) {
	p, err := s.Current()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"address": p.Address,
		"exp":     s.now().Add(24 * time.Hour).Unix(),
		"iat":     s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("profile: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns the wallet address.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("profile: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		address, ok := claims["address"].(string)
		if !ok {
			return "", fmt.Errorf("profile: invalid address in token")
		}
		return address, nil
	}

	return "", fmt.Errorf("profile: invalid token")
}
