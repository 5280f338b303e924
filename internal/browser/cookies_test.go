package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateJSON = `{
  "cookies": [
    {"name": "PHPSESSID", "value": "a", "domain": "bcit-csm.symplicity.com", "path": "/", "expires": -1},
    {"name": "remember", "value": "b", "domain": ".symplicity.com", "path": "/", "expires": 1767225600, "httpOnly": true, "secure": true, "sameSite": "Lax"},
    {"name": "sso", "value": "c", "domain": "login.bcit.ca", "path": "/", "expires": 1735689600}
  ],
  "origins": [{"origin": "https://bcit-csm.symplicity.com"}]
}`

func TestLoadStorageState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(stateJSON), 0600))

	state, err := LoadStorageState(path)
	require.NoError(t, err)
	require.Len(t, state.Cookies, 3)
	assert.True(t, state.Cookies[0].IsSession())
	assert.Len(t, state.Origins, 1)

	exp, ok := state.EarliestExpiry("bcit-csm.symplicity.com")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), exp.UTC())

	_, ok = state.EarliestExpiry("example.com")
	assert.False(t, ok)
}

func TestLoadStorageState_Errors(t *testing.T) {
	_, err := LoadStorageState(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0600))
	_, err = LoadStorageState(path)
	assert.ErrorContains(t, err, "invalid storage state")
}

func TestDomainMatches(t *testing.T) {
	assert.True(t, domainMatches(".symplicity.com", "bcit-csm.symplicity.com"))
	assert.True(t, domainMatches("symplicity.com", "symplicity.com"))
	assert.False(t, domainMatches("symplicity.com", "notsymplicity.com"))
	assert.False(t, domainMatches("", "symplicity.com"))
}
