package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken("admin@vistalens.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@vistalens.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "admin@vistalens.com", claims.Subject)
}

func TestValidateTokenFailures(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	t.Run("Garbage Token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewService("other-secret", time.Hour)
		token, err := other.GenerateToken("admin@vistalens.com")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired Token", func(t *testing.T) {
		expired := NewService("test-secret", -time.Minute)
		token, err := expired.GenerateToken("admin@vistalens.com")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}
