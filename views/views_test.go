package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/galleryreport/gallery"
)

func sampleReport() *gallery.Report {
	return &gallery.Report{
		Columns: gallery.DefaultColumns(),
		Rows: []gallery.PostGalleryRow{
			{
				PostID: 12, Title: `Holiday <script>`, Link: "/blog/holiday/", Date: "2024-07-01",
				Galleries: []int{3, 5}, GalleryCount: 2, Photos: 8, FilesizeBytes: 1572864,
				Errors: []gallery.AssetError{{AssetID: 4, RenditionError: gallery.RenditionError{Name: "thumbnail", Reason: "file not found"}}},
			},
			{PostID: 9, Title: "Empty", Link: "/blog/empty/", Date: "2024-06-01", GalleryCount: 0},
		},
		Pagination: gallery.Pagination{Page: 2, PerPage: 2, TotalItems: 5, TotalPages: 3},
	}
}

func TestHTMLTable(t *testing.T) {
	tbl := NewHTMLTable("https://example.com", "/admin/galleries/", gallery.DefaultSort)
	Load(tbl, sampleReport())

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, `<a href="https://example.com/blog/holiday/">Holiday &lt;script&gt;</a>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `<td class="column-photos">8=3+5</td>`)
	assert.Contains(t, out, `1.5 MB <span class="errors"`)
	assert.Contains(t, out, `href="/admin/galleries/?order=asc&amp;orderby=id"`)
	assert.Contains(t, out, `ID ▼`)
	assert.Contains(t, out, `class="prev-page" href="/admin/galleries/?order=desc&amp;orderby=id&amp;paged=1"`)
	assert.Contains(t, out, `class="next-page" href="/admin/galleries/?order=desc&amp;orderby=id&amp;paged=3"`)
	assert.Contains(t, out, `5 items`)
	assert.NotContains(t, out, "<th scope=\"col\" class=\"column-title\"><a")
}

func TestHTMLTableCells(t *testing.T) {
	tbl := NewHTMLTable("https://example.com", "/admin/galleries/", gallery.DefaultSort)
	Load(tbl, sampleReport())
	var buf bytes.Buffer
	require.NoError(t, tbl.Render(context.Background(), &buf))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	var headers []string
	doc.Find("thead th").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(s.Text()))
	})
	assert.Equal(t, []string{"ID ▼", "Title", "Date", "Galleries", "Photos", "Filesize"}, headers)

	var rows [][]string
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, cells)
	})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"12", "Holiday <script>", "2024-07-01", "2", "8=3+5", "1.5 MB (1 missing)"}, rows[0])
	assert.Equal(t, []string{"9", "Empty", "2024-06-01", "0", "0", "0.0 MB"}, rows[1])

	href, ok := doc.Find("td.column-title a").First().Attr("href")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/blog/holiday/", href)
	assert.Zero(t, doc.Find("td.column-id a").Length(), "no post link without PostURL")
}

func TestHTMLTableLinksPostID(t *testing.T) {
	tbl := NewHTMLTable("", "/admin/galleries/", gallery.DefaultSort)
	tbl.PostURL = "/admin/posts/"
	Load(tbl, sampleReport())
	var buf bytes.Buffer
	require.NoError(t, tbl.Render(context.Background(), &buf))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	var links []string
	doc.Find("td.column-id a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, s.Text()+" "+href)
	})
	assert.Equal(t, []string{"12 /admin/posts/12/", "9 /admin/posts/9/"}, links)
}

func TestHTMLTableEmpty(t *testing.T) {
	tbl := NewHTMLTable("", "", gallery.DefaultSort)
	var buf bytes.Buffer
	require.NoError(t, tbl.Component().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No posts with galleries found.")
	assert.Contains(t, buf.String(), `colspan="6"`)
}

func TestTextTable(t *testing.T) {
	tbl := NewTextTable()
	tbl.ShowErrors = true
	Load(tbl, sampleReport())

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(context.Background(), &buf))
	out := buf.String()
	assert.Contains(t, out, "8=3+5")
	assert.Contains(t, out, "1.5 MB")
	assert.Contains(t, out, "Galleries")
	assert.Contains(t, out, "page 2 of 3, 5 posts with galleries; this page: 8 photos, 1,572,864 bytes (1.5 MB)")
	assert.Contains(t, out, "post 12 asset 4 thumbnail: file not found")
}

func TestJSONTable(t *testing.T) {
	tbl := NewJSONTable(false)
	Load(tbl, sampleReport())

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(context.Background(), &buf))

	var doc struct {
		Columns []gallery.Column `json:"columns"`
		Rows    []struct {
			ID              int64  `json:"id"`
			GalleryPhotos   []int  `json:"gallery_photos"`
			PhotosDisplay   string `json:"photos_display"`
			FilesizeDisplay string `json:"filesize_display"`
		} `json:"rows"`
		Pagination gallery.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "8=3+5", doc.Rows[0].PhotosDisplay)
	assert.Equal(t, "1.5 MB", doc.Rows[0].FilesizeDisplay)
	assert.Equal(t, []int{}, doc.Rows[1].GalleryPhotos)
	assert.Equal(t, 3, doc.Pagination.TotalPages)
	assert.True(t, doc.Columns[0].Sortable)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestLoginPageEscapesToken(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, LoginPage("Posts with Galleries", true, `tok"en`).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `value="tok&#34;en"`)
	assert.Contains(t, buf.String(), "Invalid password.")
}

func TestSafeURL(t *testing.T) {
	assert.Equal(t, "", safeURL("javascript:alert(1)"))
	assert.Equal(t, "/blog/a/", safeURL("/blog/a/"))
	assert.Equal(t, "https://x.test/?a=1&amp;b=2", safeURL("https://x.test/?a=1&b=2"))
	assert.Equal(t, "https://example.com/base/blog/a/", absURL("https://example.com/base", "/blog/a/"))
}
