package gcal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func writeTokenFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoadCachedToken(t *testing.T) {
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).Format(time.RFC3339)

	t.Run("valid", func(t *testing.T) {
		path := writeTokenFile(t, `{"access_token": "abc", "token_type": "Bearer", "expiry": "`+future+`"}`)
		tok := loadCachedToken(path)
		require.NotNil(t, tok)
		assert.True(t, tok.Valid())
	})

	t.Run("expired with refresh token", func(t *testing.T) {
		path := writeTokenFile(t, `{"access_token": "abc", "refresh_token": "def", "token_type": "Bearer", "expiry": "`+past+`"}`)
		tok := loadCachedToken(path)
		require.NotNil(t, tok)
		assert.False(t, tok.Valid())
		assert.Equal(t, "def", tok.RefreshToken)
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		path := writeTokenFile(t, `{"access_token": "abc", "token_type": "Bearer", "expiry": "`+past+`"}`)
		assert.Nil(t, loadCachedToken(path))
	})

	t.Run("corrupt file treated as absent", func(t *testing.T) {
		path := writeTokenFile(t, `{not json`)
		assert.Nil(t, loadCachedToken(path))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Nil(t, loadCachedToken(filepath.Join(t.TempDir(), "nope.json")))
	})
}

// Expired token with a refresh token: the token source refreshes against the
// token endpoint and the new token lands in the token file; no interactive
// flow is involved.
func TestExpiredTokenRefreshPersists(t *testing.T) {
	var hits int
	tokenSrv := fakeTokenEndpoint(t, &hits)
	auth := testAuthenticator(t, tokenSrv.URL)

	path := filepath.Join(t.TempDir(), "token.json")
	expired := &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, SaveToken(path, expired))

	ts := &persistingTokenSource{
		src:  auth.TokenSource(context.Background(), expired),
		path: path,
		last: expired.AccessToken,
	}

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, 1, hits)

	saved := loadCachedToken(path)
	require.NotNil(t, saved)
	assert.Equal(t, "new-access", saved.AccessToken)
}

// A valid token is served as-is: no token endpoint traffic and no rewrite of
// the token file.
func TestValidTokenNoRefresh(t *testing.T) {
	var hits int
	tokenSrv := fakeTokenEndpoint(t, &hits)
	auth := testAuthenticator(t, tokenSrv.URL)

	path := filepath.Join(t.TempDir(), "token.json")
	valid := &oauth2.Token{
		AccessToken: "fresh",
		Expiry:      time.Now().Add(time.Hour),
	}

	ts := &persistingTokenSource{
		src:  auth.TokenSource(context.Background(), valid),
		path: path,
		last: valid.AccessToken,
	}

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, 0, hits)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "token file should not be written for an unchanged token")
}

func TestSaveTokenPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "abc"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
