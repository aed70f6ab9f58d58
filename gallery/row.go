package gallery

import (
	"math"
	"strconv"
	"strings"
)

// ResolveFunc maps an asset identifier to its size report.
type ResolveFunc func(AssetID) AssetSizeReport

// BuildRow aggregates a post's directives into a report row. Every
// reference is resolved, so an asset listed twice is counted twice.
func BuildRow(post Post, directives []GalleryDirective, resolve ResolveFunc) PostGalleryRow {
	row := PostGalleryRow{
		PostID:       post.ID,
		Title:        post.Title,
		Link:         post.Link,
		Date:         post.Date,
		GalleryCount: len(directives),
	}
	if len(directives) > 0 {
		row.Galleries = make([]int, len(directives))
	}
	for i, d := range directives {
		row.Galleries[i] = d.PhotoCount()
		row.Photos += d.PhotoCount()
		if resolve == nil {
			continue
		}
		for _, id := range d.IDs {
			rep := resolve(id)
			row.FilesizeBytes += rep.Total
			for _, e := range rep.Errors {
				row.Errors = append(row.Errors, AssetError{AssetID: id, RenditionError: e})
			}
		}
	}
	return row
}

// PhotosDisplay renders the photo total with its per-gallery breakdown,
// e.g. "8=3+5".
func (r PostGalleryRow) PhotosDisplay() string {
	if len(r.Galleries) == 0 {
		return strconv.Itoa(r.Photos)
	}
	parts := make([]string, len(r.Galleries))
	for i, n := range r.Galleries {
		parts[i] = strconv.Itoa(n)
	}
	return strconv.Itoa(r.Photos) + "=" + strings.Join(parts, "+")
}

// FilesizeDisplay renders the aggregate size in megabytes.
func (r PostGalleryRow) FilesizeDisplay() string {
	return FormatMegabytes(r.FilesizeBytes)
}

const bytesPerMB = 1 << 20

// FormatMegabytes renders n bytes as MB with one decimal, rounding half up.
func FormatMegabytes(n int64) string {
	mb := math.Round(float64(n)/bytesPerMB*10) / 10
	return strconv.FormatFloat(mb, 'f', 1, 64) + " MB"
}
