package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/narratlas/narratlas/internal/common"
)

var secret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", secret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := GetUserIDFromToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-1", secret, -time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, secret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", secret, time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, []byte("other-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGarbageToken(t *testing.T) {
	_, err := GetUserIDFromToken("not.a.jwt", secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
