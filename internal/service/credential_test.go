package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential.txt")
	store := NewFileCredentials(path)

	value, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, value.Cookie)

	require.NoError(t, store.Save(StoredCredential{Cookie: "a1=A; web_session=W"}))
	value, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, StoredCredential{Cookie: "a1=A; web_session=W"}, value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Save(StoredCredential{Cookie: "a1=A", UserAgent: "agent/2.0"}))
	value, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, StoredCredential{Cookie: "a1=A", UserAgent: "agent/2.0"}, value)

	// a hand-written file holding only the cookie
	require.NoError(t, os.WriteFile(path, []byte("  a1=B\n"), 0600))
	value, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, StoredCredential{Cookie: "a1=B"}, value)
}

func TestFileCredentialsWithoutPath(t *testing.T) {
	store := NewFileCredentials("")
	require.NoError(t, store.Save(StoredCredential{Cookie: "a1=A"}))
	value, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, value.Cookie)
}
