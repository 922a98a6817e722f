package migrate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002-add_posts.sql",
		"0001-init.sql",
		"1722470400-hotfix.sql", // Unix-seconds prefix is accepted too
		"0003_snake_name.sql",
		"README.md",        // ignored
		"notes.sql",        // no version prefix, ignored
		"0004-bad name.sql", // invalid name chars, ignored
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- x\n"), 0o644))
	}

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	assert.Equal(t, "init", files[0].Name)
	assert.Equal(t, int64(1), files[0].Version)
	assert.Equal(t, "add_posts", files[1].Name)
	assert.Equal(t, "snake_name", files[2].Name)
	assert.Equal(t, "hotfix", files[3].Name)
	assert.Equal(t, int64(1722470400), files[3].Version)
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCreateFileSequence(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateFile(dir, "init", false)
	require.NoError(t, err)
	assert.Equal(t, "0001-init.sql", filepath.Base(path))

	path, err = CreateFile(dir, "add_posts", false)
	require.NoError(t, err)
	assert.Equal(t, "0002-add_posts.sql", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: add_posts")
}

func TestCreateFileTimestamped(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateFile(dir, "hotfix", true)
	require.NoError(t, err)

	base := filepath.Base(path)
	prefix, rest, found := strings.Cut(base, "-")
	require.True(t, found)
	assert.Equal(t, "hotfix.sql", rest)
	_, err = strconv.ParseInt(prefix, 10, 64)
	assert.NoError(t, err)

	// The generated file must be picked up by the reader.
	files, listErr := ListFiles(dir)
	require.NoError(t, listErr)
	require.Len(t, files, 1)
	assert.Equal(t, "hotfix", files[0].Name)
}

func TestCreateFileRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "bad name", "semi;colon", "dot.dot"} {
		_, err := CreateFile(dir, name, false)
		assert.Error(t, err, "name %q", name)
	}
}

func TestLoadSchemaDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-posts.sql"),
		[]byte("CREATE TABLE posts (id INTEGER PRIMARY KEY);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-users.sql"),
		[]byte("CREATE TABLE users (id INTEGER PRIMARY KEY);\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0o644))

	combined, err := LoadSchemaDir(dir)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE users (id INTEGER PRIMARY KEY);\nCREATE TABLE posts (id INTEGER PRIMARY KEY);\n",
		combined)
}

func TestLoadSchemaDirMissing(t *testing.T) {
	combined, err := LoadSchemaDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, combined)
}
