package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenAuth "github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/password"
)

func newMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := NewMemory(password.LightConfig())
	require.NoError(t, err)
	return m
}

func TestMemoryVerifyCredentials(t *testing.T) {
	m := newMemory(t)
	require.NoError(t, m.Seed("Alice@Example.com", "Alice", "passw0rd!"))

	subject, err := m.VerifyCredentials(context.Background(), " alice@example.com ", "passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)

	_, err = m.VerifyCredentials(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, tokenAuth.ErrInvalidCredentials)

	_, err = m.VerifyCredentials(context.Background(), "eve@example.com", "passw0rd!")
	assert.ErrorIs(t, err, tokenAuth.ErrInvalidCredentials)
}

func TestMemoryCreateUser(t *testing.T) {
	m := newMemory(t)

	subject, err := m.CreateUser(context.Background(), tokenAuth.RegisterRequest{Email: "bob@example.com", Password: "s3cret!x", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", subject)

	_, err = m.CreateUser(context.Background(), tokenAuth.RegisterRequest{Email: "BOB@example.com", Password: "other!1x"})
	assert.ErrorIs(t, err, tokenAuth.ErrAccountExists)

	_, err = m.CreateUser(context.Background(), tokenAuth.RegisterRequest{Email: " ", Password: "x"})
	assert.ErrorIs(t, err, tokenAuth.ErrInvalidRegistration)

	_, err = m.CreateUser(context.Background(), tokenAuth.RegisterRequest{Email: "carol@example.com"})
	assert.ErrorIs(t, err, tokenAuth.ErrInvalidRegistration)

	_, err = m.VerifyCredentials(context.Background(), "bob@example.com", "s3cret!x")
	assert.NoError(t, err)
}

func TestMemoryCreateSocialUser(t *testing.T) {
	m := newMemory(t)
	require.NoError(t, m.Seed("alice@example.com", "Alice", "passw0rd!"))

	subject, err := m.CreateSocialUser(context.Background(), tokenAuth.SocialRegisterRequest{Email: " Dana@Example.com ", Name: "Dana"})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", subject)

	_, err = m.CreateSocialUser(context.Background(), tokenAuth.SocialRegisterRequest{Email: "alice@example.com"})
	assert.ErrorIs(t, err, tokenAuth.ErrAccountExists)

	_, err = m.CreateSocialUser(context.Background(), tokenAuth.SocialRegisterRequest{Email: ""})
	assert.ErrorIs(t, err, tokenAuth.ErrInvalidRegistration)

	_, err = m.VerifyCredentials(context.Background(), "dana@example.com", "")
	assert.ErrorIs(t, err, tokenAuth.ErrInvalidCredentials, "social accounts have no password")
}

func TestMemoryConcurrentSignUpSingleWinner(t *testing.T) {
	m := newMemory(t)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		winner int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateUser(context.Background(), tokenAuth.RegisterRequest{Email: "race@example.com", Password: "s3cret!x"})
			if err == nil {
				mu.Lock()
				winner++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winner)
	assert.Equal(t, 1, m.Len())
}

func TestNewMemoryRejectsWeakHashing(t *testing.T) {
	cfg := password.LightConfig()
	cfg.Memory = 16
	_, err := NewMemory(cfg)
	assert.ErrorIs(t, err, tokenAuth.ErrConfiguration)
}
