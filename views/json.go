package views

import (
	"context"
	"encoding/json"
	"io"

	"github.com/eringen/galleryreport/gallery"
)

// JSONTable renders the report as a JSON document.
type JSONTable struct {
	tableState
	Indent bool
}

// NewJSONTable returns an empty JSONTable.
func NewJSONTable(indent bool) *JSONTable {
	return &JSONTable{Indent: indent}
}

type jsonRow struct {
	ID              int64                `json:"id"`
	Title           string               `json:"title"`
	Link            string               `json:"link"`
	Date            string               `json:"date"`
	Galleries       int                  `json:"galleries"`
	GalleryPhotos   []int                `json:"gallery_photos"`
	Photos          int                  `json:"photos"`
	PhotosDisplay   string               `json:"photos_display"`
	FilesizeBytes   int64                `json:"filesize_bytes"`
	FilesizeDisplay string               `json:"filesize_display"`
	Errors          []gallery.AssetError `json:"errors,omitempty"`
}

type jsonReport struct {
	Columns    []gallery.Column   `json:"columns"`
	Rows       []jsonRow          `json:"rows"`
	Pagination gallery.Pagination `json:"pagination"`
}

// Render implements ReportRenderer.
func (t *JSONTable) Render(ctx context.Context, w io.Writer) error {
	doc := jsonReport{
		Columns:    t.cols(),
		Rows:       make([]jsonRow, len(t.rows)),
		Pagination: t.pagination,
	}
	for i, r := range t.rows {
		galleries := r.Galleries
		if galleries == nil {
			galleries = []int{}
		}
		doc.Rows[i] = jsonRow{
			ID:              r.PostID,
			Title:           r.Title,
			Link:            r.Link,
			Date:            r.Date,
			Galleries:       r.GalleryCount,
			GalleryPhotos:   galleries,
			Photos:          r.Photos,
			PhotosDisplay:   r.PhotosDisplay(),
			FilesizeBytes:   r.FilesizeBytes,
			FilesizeDisplay: r.FilesizeDisplay(),
			Errors:          r.Errors,
		}
	}
	enc := json.NewEncoder(w)
	if t.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
