package auth

import (
	"path/filepath"
	"pos_sync/pkg/securestore"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *securestore.Store {
	t.Helper()
	store, err := securestore.Open(filepath.Join(t.TempDir(), "secrets.bin"), "test")
	require.NoError(t, err)
	return store
}

func TestCurrentUserFromStoredRecord(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save("user", `{"username":"meg","role":"manager"}`))

	session := NewSession(store)
	user, err := session.CurrentUser()
	require.NoError(t, err)
	require.Equal(t, "meg", user.Username)
	require.True(t, session.IsManager())
	require.Equal(t, "meg", session.Username())
}

func TestCurrentUserFallsBackToTokenClaims(t *testing.T) {
	store := testStore(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "sam",
		"role":     "staff",
	})
	signed, err := token.SignedString([]byte("server-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Save("token", signed))

	session := NewSession(store)
	user, err := session.CurrentUser()
	require.NoError(t, err)
	require.Equal(t, "sam", user.Username)
	require.False(t, session.IsManager())
}

func TestNoSessionMeansNoUserAndEmptyToken(t *testing.T) {
	session := NewSession(testStore(t))

	token, err := session.Token()
	require.NoError(t, err)
	require.Empty(t, token)

	user, err := session.CurrentUser()
	require.NoError(t, err)
	require.Nil(t, user)
	require.False(t, session.IsManager())
}
