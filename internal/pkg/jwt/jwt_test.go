// internal/pkg/jwt/jwt_test.go
package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Secret:   "test-secret",
		Issuer:   "dukani-service",
		Audience: "dukani-sellers",
		TTL:      time.Hour,
	}
}

func TestManagerRoundTrip(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)

	token, err := m.Generate(7, "admin")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.SellerID)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.ID)
}

func TestManagerRejects(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewManager(Config{Secret: "other-secret", Issuer: "dukani-service", Audience: "dukani-sellers", TTL: time.Hour})
		require.NoError(t, err)

		token, err := other.Generate(7, "seller")
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewManager(Config{Secret: "test-secret", Issuer: "dukani-service", Audience: "someone-else", TTL: time.Hour})
		require.NoError(t, err)

		token, err := other.Generate(7, "seller")
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := m.Verify("not-a-token")
		assert.Error(t, err)
	})
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	assert.Error(t, err)
}
