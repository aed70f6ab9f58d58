// Package views renders gallery reports as HTML, terminal tables, or JSON.
package views

import (
	"context"
	"html"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/galleryreport/gallery"
)

// ReportRenderer consumes report rows and writes a user-facing view.
type ReportRenderer interface {
	SetColumns(cols []gallery.Column)
	SetRows(rows []gallery.PostGalleryRow)
	SetPagination(p gallery.Pagination)
	Render(ctx context.Context, w io.Writer) error
}

// tableState holds the state shared by every renderer.
type tableState struct {
	columns    []gallery.Column
	rows       []gallery.PostGalleryRow
	pagination gallery.Pagination
}

func (t *tableState) SetColumns(cols []gallery.Column)      { t.columns = cols }
func (t *tableState) SetRows(rows []gallery.PostGalleryRow) { t.rows = rows }
func (t *tableState) SetPagination(p gallery.Pagination)    { t.pagination = p }

func (t *tableState) cols() []gallery.Column {
	if len(t.columns) == 0 {
		return gallery.DefaultColumns()
	}
	return t.columns
}

// Load copies a generated report into r.
func Load(r ReportRenderer, rep *gallery.Report) {
	r.SetColumns(rep.Columns)
	r.SetRows(rep.Rows)
	r.SetPagination(rep.Pagination)
}

// cell returns the plain-text value of a column for a row.
func cell(row gallery.PostGalleryRow, key string) string {
	switch key {
	case gallery.ColumnID:
		return itoa64(row.PostID)
	case gallery.ColumnTitle:
		return row.Title
	case gallery.ColumnDate:
		return row.Date
	case gallery.ColumnGalleries:
		return itoa64(int64(row.GalleryCount))
	case gallery.ColumnPhotos:
		return row.PhotosDisplay()
	case gallery.ColumnFilesize:
		return row.FilesizeDisplay()
	}
	return ""
}

// absURL joins a post link onto the site URL.
func absURL(base, link string) string {
	if base == "" || strings.Contains(link, "://") {
		return link
	}
	u, err := url.Parse(base)
	if err != nil {
		return link
	}
	trailing := strings.HasSuffix(link, "/")
	u.Path = path.Join(u.Path, link)
	if trailing && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// safeURL escapes a link for an href, dropping unsafe schemes.
func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "?") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return html.EscapeString(val)
	default:
		return ""
	}
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
