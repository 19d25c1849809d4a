package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
)

func newPublicKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func TestIsKeyAuthorized(t *testing.T) {
	allowed := newPublicKey(t)
	other := newPublicKey(t)

	path := filepath.Join(t.TempDir(), "authorized_keys")
	content := "# admin keys\n\nnot-a-key\n" + string(gossh.MarshalAuthorizedKey(allowed))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	assert.True(t, isKeyAuthorized(allowed, path))
	assert.False(t, isKeyAuthorized(other, path))
}

func TestIsKeyAuthorized_MissingFile(t *testing.T) {
	assert.False(t, isKeyAuthorized(newPublicKey(t), filepath.Join(t.TempDir(), "missing")))
}

func TestNew_GeneratesHostKey(t *testing.T) {
	dir := t.TempDir()
	hostKey := filepath.Join(dir, "ssh", "id_ed25519")

	s, err := New("127.0.0.1:0", hostKey, filepath.Join(dir, "authorized_keys"), nil)
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = os.Stat(hostKey)
	assert.NoError(t, err)
}
