package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GALLERYREPORT_DATABASE_PATH", filepath.Join(dir, "data", "cli.db"))
	t.Setenv("GALLERYREPORT_UPLOADS_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("GALLERYREPORT_LOG_LEVEL", "error")
	return dir
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "galleryreport dev\n", out)
}

func TestPostImportReport(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, `Intro [gallery] and [gallery ids="1,1"]`,
		"post", "add", "--title", "Harbor Walk", "--date", "2024-06-01", "--content-file", "-")
	require.NoError(t, err)
	assert.Equal(t, "post 1 saved (harbor-walk)\n", out)

	img := filepath.Join(dir, "boats.png")
	writePNG(t, img, 320, 240)
	out, err = run(t, "", "import", "--post", "1", img)
	require.NoError(t, err)
	assert.Contains(t, out, "-> attachment 1")

	out, err = run(t, "", "post", "attachments", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1\timage/jpeg\t")
	assert.Contains(t, out, "boats.jpg\t2 renditions\t")

	out, err = run(t, "", "report", "--format", "json")
	require.NoError(t, err)
	var doc struct {
		Rows []struct {
			ID            int64  `json:"id"`
			PhotosDisplay string `json:"photos_display"`
			FilesizeBytes int64  `json:"filesize_bytes"`
			Link          string `json:"link"`
		} `json:"rows"`
		Pagination struct {
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, int64(1), doc.Rows[0].ID)
	assert.Equal(t, "3=1+2", doc.Rows[0].PhotosDisplay)
	assert.Positive(t, doc.Rows[0].FilesizeBytes)
	assert.Equal(t, "/blog/harbor-walk/", doc.Rows[0].Link)

	out, err = run(t, "", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Harbor Walk")
	assert.Contains(t, out, "3=1+2")
	assert.Contains(t, out, "page 1 of 1")

	out, err = run(t, "", "report", "--format", "html", "--order", "asc")
	require.NoError(t, err)
	assert.Contains(t, out, `href="http://localhost:3000/blog/harbor-walk/"`)
}

func TestReportRejectsBadInput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "report", "--orderby", "title")
	assert.ErrorContains(t, err, "invalid sort")

	_, err = run(t, "", "report", "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)

	_, err = run(t, "", "import", "missing.png")
	assert.ErrorContains(t, err, "--post is required")

	_, err = run(t, "", "post", "add", "--title", "x", "--date", "June", "--content-file", "-")
	assert.ErrorContains(t, err, "--date")

	_, err = run(t, "", "post", "attachments", "zero")
	assert.ErrorContains(t, err, `invalid post id "zero"`)

	_, err = run(t, "", "post", "attachments", "7")
	assert.ErrorContains(t, err, "post 7")
}
