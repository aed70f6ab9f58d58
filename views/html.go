package views

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/galleryreport/gallery"
)

// HTMLTable renders the report as an admin list table.
type HTMLTable struct {
	tableState
	SiteURL string           // prefix for post links
	BaseURL string           // page the sort and pagination links point at
	Sort    gallery.SortSpec // current order, used for header links
	// PostURL prefixes the per-post admin link on the ID cell. The ID is
	// plain text when it is empty.
	PostURL string
}

// NewHTMLTable returns an HTMLTable linking back to baseURL.
func NewHTMLTable(siteURL, baseURL string, sort gallery.SortSpec) *HTMLTable {
	return &HTMLTable{SiteURL: siteURL, BaseURL: baseURL, Sort: sort}
}

// Render implements ReportRenderer.
func (t *HTMLTable) Render(ctx context.Context, w io.Writer) error {
	return t.Component().Render(ctx, w)
}

// Component returns the table as a templ component.
func (t *HTMLTable) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		t.write(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func (t *HTMLTable) write(buf *bytes.Buffer) {
	cols := t.cols()
	t.writeNav(buf)
	buf.WriteString(`<table class="widefat striped galleries"><thead><tr>`)
	for _, c := range cols {
		buf.WriteString(`<th scope="col" class="column-` + templ.EscapeString(c.Key) + `">`)
		if c.Sortable {
			next := gallery.SortSpec{Field: c.Key, Direction: gallery.SortAsc}
			indicator := ""
			if t.Sort.Field == c.Key {
				next = t.Sort.Toggle()
				indicator = " ▲"
				if t.Sort.Direction == gallery.SortDesc {
					indicator = " ▼"
				}
			}
			href := t.link(url.Values{"orderby": {next.Field}, "order": {next.Direction}})
			buf.WriteString(`<a href="` + safeURL(href) + `">` + templ.EscapeString(c.Label) + indicator + `</a>`)
		} else {
			buf.WriteString(templ.EscapeString(c.Label))
		}
		buf.WriteString(`</th>`)
	}
	buf.WriteString(`</tr></thead><tbody>`)
	if len(t.rows) == 0 {
		buf.WriteString(`<tr class="no-items"><td colspan="` + strconv.Itoa(len(cols)) + `">No posts with galleries found.</td></tr>`)
	}
	for _, row := range t.rows {
		buf.WriteString(`<tr>`)
		for _, c := range cols {
			buf.WriteString(`<td class="column-` + templ.EscapeString(c.Key) + `">`)
			switch c.Key {
			case gallery.ColumnID:
				id := itoa64(row.PostID)
				if href := safeURL(t.PostURL + id + "/"); t.PostURL != "" && href != "" {
					buf.WriteString(`<a href="` + href + `">` + id + `</a>`)
				} else {
					buf.WriteString(id)
				}
			case gallery.ColumnTitle:
				if href := safeURL(absURL(t.SiteURL, row.Link)); href != "" {
					buf.WriteString(`<a href="` + href + `">` + templ.EscapeString(row.Title) + `</a>`)
				} else {
					buf.WriteString(templ.EscapeString(row.Title))
				}
			case gallery.ColumnFilesize:
				buf.WriteString(templ.EscapeString(cell(row, c.Key)))
				if len(row.Errors) > 0 {
					buf.WriteString(` <span class="errors" title="unreadable renditions">(` + strconv.Itoa(len(row.Errors)) + ` missing)</span>`)
				}
			default:
				buf.WriteString(templ.EscapeString(cell(row, c.Key)))
			}
			buf.WriteString(`</td>`)
		}
		buf.WriteString(`</tr>`)
	}
	buf.WriteString(`</tbody></table>`)
}

func (t *HTMLTable) writeNav(buf *bytes.Buffer) {
	p := t.pagination
	buf.WriteString(`<div class="tablenav"><span class="displaying-num">` + strconv.Itoa(p.TotalItems) + ` items</span>`)
	if p.TotalPages > 1 {
		buf.WriteString(`<span class="pagination-links">`)
		if p.Page > 1 {
			buf.WriteString(`<a class="prev-page" href="` + safeURL(t.pageLink(p.Page-1)) + `">&lsaquo;</a>`)
		}
		buf.WriteString(` <span class="paging-input">` + strconv.Itoa(p.Page) + ` of ` + strconv.Itoa(p.TotalPages) + `</span> `)
		if p.Page < p.TotalPages {
			buf.WriteString(`<a class="next-page" href="` + safeURL(t.pageLink(p.Page+1)) + `">&rsaquo;</a>`)
		}
		buf.WriteString(`</span>`)
	}
	buf.WriteString(`</div>`)
}

func (t *HTMLTable) pageLink(page int) string {
	return t.link(url.Values{
		"paged":   {strconv.Itoa(page)},
		"orderby": {t.Sort.Field},
		"order":   {t.Sort.Direction},
	})
}

func (t *HTMLTable) link(q url.Values) string {
	base := t.BaseURL
	if base == "" {
		base = "?"
	} else {
		base += "?"
	}
	return base + q.Encode()
}
