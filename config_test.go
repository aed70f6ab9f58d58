package galleryreport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "Posts with Galleries", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "data/galleries.db", cfg.DatabasePath)
	assert.Equal(t, "public/uploads", cfg.UploadsDir)
	assert.Equal(t, 10, cfg.PerPage)
	assert.Equal(t, 1, cfg.Workers)
	assert.False(t, cfg.IncludeOriginalInTotal)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Photo Desk
per_page: 25
workers: 4
include_original_in_total: true
uploads_dir: /srv/uploads
`), 0o644))
	t.Setenv("GALLERYREPORT_PER_PAGE", "5")
	t.Setenv("GALLERYREPORT_ADMIN_PASSWORD", "secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Photo Desk", cfg.Name)
	assert.Equal(t, 5, cfg.PerPage, "environment overrides the file")
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.IncludeOriginalInTotal)
	assert.Equal(t, "/srv/uploads", cfg.UploadsDir)
	assert.Equal(t, "secret", cfg.AdminPassword)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("GALLERYREPORT_SESSION_SECRET=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GALLERYREPORT_SESSION_SECRET") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.SessionSecret)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig("missing.yaml")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile("bad.yaml", []byte("per_page: [1"), 0o644))
	_, err = LoadConfig("bad.yaml")
	assert.Error(t, err)

	t.Setenv("GALLERYREPORT_WORKERS", "many")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "GALLERYREPORT_WORKERS")
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}
