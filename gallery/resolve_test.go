package gallery

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadsFS() fstest.MapFS {
	return fstest.MapFS{
		"2024/05/sunset.jpg":         {Data: make([]byte, 1000)},
		"2024/05/sunset-150x150.jpg": {Data: make([]byte, 100)},
		"2024/05/sunset-300x200.jpg": {Data: make([]byte, 300)},
		"2024/05/sunset-orig.jpg":    {Data: make([]byte, 5000)},
		"2024/05/folder.jpg/x":       {Data: []byte("x")},
	}
}

func TestResolvePrefersCachedSizes(t *testing.T) {
	r := NewResolver(uploadsFS(), false)
	rep := r.Resolve(Asset{
		ID:       1,
		File:     "2024/05/sunset.jpg",
		FileSize: 4242,
		Renditions: []Rendition{
			{Name: "thumbnail", File: "sunset-150x150.jpg", FileSize: 7},
			{Name: "medium", File: "sunset-300x200.jpg"},
		},
	})
	assert.Empty(t, rep.Errors)
	assert.Equal(t, int64(4242), rep.MainBytes)
	assert.Equal(t, map[string]int64{"thumbnail": 7, "medium": 300}, rep.RenditionBytes)
	assert.Equal(t, int64(4242+7+300), rep.Total)
}

func TestResolveStatsWhenUncached(t *testing.T) {
	r := NewResolver(uploadsFS(), false)
	rep := r.Resolve(Asset{
		ID:   1,
		File: "2024/05/sunset.jpg",
		Renditions: []Rendition{
			{Name: "thumbnail", File: "sunset-150x150.jpg"},
		},
	})
	assert.Empty(t, rep.Errors)
	assert.Equal(t, int64(1100), rep.Total)
}

func TestResolveOriginalExcludedByDefault(t *testing.T) {
	a := Asset{ID: 1, File: "2024/05/sunset.jpg", OriginalImage: "sunset-orig.jpg"}

	rep := NewResolver(uploadsFS(), false).Resolve(a)
	assert.Equal(t, int64(5000), rep.OriginalBytes)
	assert.Equal(t, int64(1000), rep.Total)

	rep = NewResolver(uploadsFS(), true).Resolve(a)
	assert.Equal(t, int64(6000), rep.Total)
}

func TestResolveAllMissing(t *testing.T) {
	r := NewResolver(fstest.MapFS{}, true)
	var rep AssetSizeReport
	require.NotPanics(t, func() {
		rep = r.Resolve(Asset{
			ID:            3,
			File:          "2023/01/gone.jpg",
			OriginalImage: "gone-orig.jpg",
			Renditions: []Rendition{
				{Name: "thumbnail", File: "gone-150x150.jpg"},
				{Name: "large", File: "gone-1024x768.jpg"},
			},
		})
	})
	assert.Equal(t, int64(0), rep.Total)
	require.Len(t, rep.Errors, 4)
	names := make([]string, len(rep.Errors))
	for i, e := range rep.Errors {
		names[i] = e.Name
		assert.Equal(t, "file not found", e.Reason)
	}
	assert.Equal(t, []string{RenditionMain, RenditionOriginal, "thumbnail", "large"}, names)
	assert.Equal(t, "2023/01/gone-150x150.jpg", rep.Errors[2].Path)
}

func TestResolveNilFSAndEmptyFile(t *testing.T) {
	r := &Resolver{}
	rep := r.Resolve(Asset{ID: 4, Renditions: []Rendition{{Name: "thumbnail", File: "t.jpg"}, {Name: "blank"}}})
	assert.Equal(t, int64(0), rep.Total)
	require.Len(t, rep.Errors, 3)
	assert.Equal(t, "no file recorded", rep.Errors[0].Reason)
	assert.Equal(t, "file not found", rep.Errors[1].Reason)
	assert.Equal(t, "no file recorded", rep.Errors[2].Reason)
}

func TestResolveRejectsDirectoriesAndBadPaths(t *testing.T) {
	r := NewResolver(uploadsFS(), false)
	rep := r.Resolve(Asset{ID: 5, File: "2024/05/folder.jpg"})
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "not a regular file", rep.Errors[0].Reason)

	rep = r.Resolve(Asset{ID: 6, File: "../etc/passwd"})
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, RenditionMain, rep.Errors[0].Name)
	assert.Equal(t, int64(0), rep.Total)
}
