package filestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-cowork-client/session"
	"github.com/jrsteele09/go-cowork-client/session/filestore"
	"github.com/stretchr/testify/require"
)

func TestRepo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	repo, err := filestore.New(path)
	require.NoError(t, err)

	_, err = repo.Load(session.TokenKey)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, repo.Save(session.TokenKey, "abc"))
	require.NoError(t, repo.Save("other", "kept"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, repo.Delete(session.TokenKey))
	require.ErrorIs(t, repo.Delete(session.TokenKey), session.ErrNotFound)

	v, err := repo.Load("other")
	require.NoError(t, err)
	require.Equal(t, "kept", v)
}

func TestRepo_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	repo, err := filestore.New(path)
	require.NoError(t, err)

	_, err = repo.Load(session.TokenKey)
	require.Error(t, err)
	require.NotErrorIs(t, err, session.ErrNotFound)
}
