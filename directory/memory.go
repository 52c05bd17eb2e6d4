package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tokenAuth "github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/password"
)

// Memory is an in-process [tokenAuth.UserDirectory] holding Argon2id hashes.
// It backs the demo, the load generator, and servers started without a
// directory URL.
type Memory struct {
	hasher *password.Hasher

	mu    sync.RWMutex
	users map[string]memoryUser
}

type memoryUser struct {
	name string
	hash string
}

var (
	_ tokenAuth.UserDirectory       = (*Memory)(nil)
	_ tokenAuth.SocialUserDirectory = (*Memory)(nil)
)

// NewMemory returns an empty directory hashing with cfg.
func NewMemory(cfg password.Config) (*Memory, error) {
	h, err := password.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tokenAuth.ErrConfiguration, err)
	}
	return &Memory{hasher: h, users: make(map[string]memoryUser)}, nil
}

// Seed adds or replaces a user.
func (m *Memory) Seed(email, name, pw string) error {
	hash, err := m.hasher.Hash(pw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.users[normalizeEmail(email)] = memoryUser{name: name, hash: hash}
	m.mu.Unlock()
	return nil
}

// Len returns the number of users.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// VerifyCredentials implements [tokenAuth.UserDirectory].
func (m *Memory) VerifyCredentials(_ context.Context, identifier, pw string) (string, error) {
	key := normalizeEmail(identifier)

	m.mu.RLock()
	u, ok := m.users[key]
	m.mu.RUnlock()
	if !ok || u.hash == "" {
		return "", tokenAuth.ErrInvalidCredentials
	}

	match, err := m.hasher.Verify(pw, u.hash)
	if err != nil || !match {
		return "", tokenAuth.ErrInvalidCredentials
	}

	if stale, _ := m.hasher.NeedsRehash(u.hash); stale {
		if fresh, err := m.hasher.Hash(pw); err == nil {
			m.mu.Lock()
			if cur, ok := m.users[key]; ok && cur.hash == u.hash {
				cur.hash = fresh
				m.users[key] = cur
			}
			m.mu.Unlock()
		}
	}
	return key, nil
}

// CreateUser implements [tokenAuth.UserDirectory].
func (m *Memory) CreateUser(_ context.Context, req tokenAuth.RegisterRequest) (string, error) {
	key := normalizeEmail(req.Email)
	if key == "" {
		return "", fmt.Errorf("%w: email is required", tokenAuth.ErrInvalidRegistration)
	}

	hash, err := m.hasher.Hash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tokenAuth.ErrInvalidRegistration, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[key]; exists {
		return "", tokenAuth.ErrAccountExists
	}
	m.users[key] = memoryUser{name: req.Name, hash: hash}
	return key, nil
}

// CreateSocialUser implements [tokenAuth.SocialUserDirectory]. The account has
// no password hash, so VerifyCredentials never accepts it.
func (m *Memory) CreateSocialUser(_ context.Context, req tokenAuth.SocialRegisterRequest) (string, error) {
	key := normalizeEmail(req.Email)
	if key == "" {
		return "", fmt.Errorf("%w: email is required", tokenAuth.ErrInvalidRegistration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[key]; exists {
		return "", tokenAuth.ErrAccountExists
	}
	m.users[key] = memoryUser{name: req.Name}
	return key, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
