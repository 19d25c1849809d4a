package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

func TestStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	s := New()

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.False(t, s.LoggedIn())

	auth := &models.AuthData{
		AccessToken: "tok",
		UserID:      7,
		Monitors:    []models.Monitor{{ID: 99}},
	}
	require.NoError(t, s.Save(auth))
	assert.True(t, s.LoggedIn())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, auth.AccessToken, got.AccessToken)
	assert.Equal(t, auth.Monitors, got.Monitors)

	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStore_ClearEmpty(t *testing.T) {
	keyring.MockInit()
	assert.NoError(t, NewWithService("empty-test").Clear())
}

func TestStore_SaveNil(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, New().Save(nil))
}

func TestStore_LoadCorrupt(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(Service, AuthKey, "{not json"))

	_, err := New().Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotLoggedIn)
}

func TestStore_PurgeLegacy(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(Service, "SenseAuthUser", "me@example.com"))
	require.NoError(t, keyring.Set(Service, "SenseAuthPass", "secret"))
	require.NoError(t, keyring.Set(Service, AuthKey, `{"access_token":"keep"}`))

	s := New()
	require.NoError(t, s.PurgeLegacy())

	for _, key := range legacyKeys {
		_, err := keyring.Get(Service, key)
		assert.ErrorIs(t, err, keyring.ErrNotFound, key)
	}
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "keep", got.AccessToken)

	// Nothing left to purge.
	assert.NoError(t, s.PurgeLegacy())
}
