package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
	"github.com/alfredjeanlab/devjournal/internal/store/storetest"
)

func openTemp(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	return s, dir
}

func TestFileStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := openTemp(t)
		return s
	})
}

func TestOpen_WritesSeedDocuments(t *testing.T) {
	_, dir := openTemp(t)

	blog, err := os.ReadFile(filepath.Join(dir, EntriesFile))
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.GetBytes(blog, "posts.#").Int())
	assert.Equal(t, "abc12", gjson.GetBytes(blog, "posts.0.id").String())
	assert.Contains(t, string(blog), "\n  \"posts\": [\n", "document should use 2-space indent")
	assert.Contains(t, string(blog), `"html": "<p>Node.js is`, "html must be written unescaped")
	assert.NotContains(t, string(blog), `\u003c`)
	assert.NotEqual(t, byte('\n'), blog[len(blog)-1], "no trailing newline after the document")

	users, err := os.ReadFile(filepath.Join(dir, UsersFile))
	require.NoError(t, err)
	assert.Equal(t, "Montoya", gjson.GetBytes(users, "users.0.lname").String())
	assert.Equal(t, "sSNAzhZh-csARwTjj10u8ghEOpgqkTZdOW64", gjson.GetBytes(users, "users.0._csrf").String())
}

func TestOpen_KeepsExistingDocument(t *testing.T) {
	dir := t.TempDir()
	doc := `{"posts":[{"id":"zz999","title":"Mine","author":"Me","date":"2024-03-01T00:00:00.000Z","html":""}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, EntriesFile), []byte(doc), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)

	entries, err := s.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mine", entries[0].Title)
}

func TestListEntries_ReflectsExternalEdits(t *testing.T) {
	s, dir := openTemp(t)

	doc := `{"posts":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, EntriesFile), []byte(doc), 0o644))

	entries, err := s.ListEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	s, dir := openTemp(t)
	ctx := context.Background()

	created, err := s.AppendEntry(ctx, &model.Entry{Title: "T", Author: "A", Date: "2024-02-01T00:00:00.000Z", HTML: "<p>x</p>"})
	require.NoError(t, err)
	_, err = s.ToggleFavorite(ctx, "JEbxp")
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)

	entries, err := reopened.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, *created, *entries[3])

	users, err := reopened.ListUsers(ctx)
	require.NoError(t, err)
	assert.True(t, users[0].IsFavorite)
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	s, dir := openTemp(t)
	_, err := s.RemoveEntry(context.Background(), "abc12")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCorruptDocument(t *testing.T) {
	s, dir := openTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), []byte("{not json"), 0o644))

	_, err := s.ListUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not unmarshal")
}

func TestPing(t *testing.T) {
	s, dir := openTemp(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Ping(context.Background()))
}
