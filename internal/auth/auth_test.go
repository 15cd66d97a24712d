package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)

	match, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	require.True(t, match)

	match, err = ComparePasswordAndHash("wrong", hash)
	require.NoError(t, err)
	require.False(t, match)
}

func TestComparePasswordAndHashRejectsMalformed(t *testing.T) {
	_, err := ComparePasswordAndHash("anything", "not-an-encoded-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func TestJWTRoundtrip(t *testing.T) {
	Init()

	id := uuid.New()
	token, err := CreateJWT(id.String(), "alice@example.com", "alice")
	require.NoError(t, err)

	ident, err := AuthenticateJWT(token)
	require.NoError(t, err)
	require.Equal(t, id.String(), ident.AccountID)
	require.Equal(t, "alice@example.com", ident.Email)
	require.Equal(t, "alice", ident.Username)
}

func TestJWTRejectsGarbage(t *testing.T) {
	Init()
	_, err := AuthenticateJWT("not.a.token")
	require.Error(t, err)
}
