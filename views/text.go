package views

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/eringen/galleryreport/gallery"
)

// TextTable renders the report as a bordered terminal table.
type TextTable struct {
	tableState
	// ShowErrors lists unreadable renditions under the table.
	ShowErrors bool
}

// NewTextTable returns an empty TextTable.
func NewTextTable() *TextTable {
	return &TextTable{}
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Render implements ReportRenderer.
func (t *TextTable) Render(ctx context.Context, w io.Writer) error {
	cols := t.cols()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Label
	}
	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = cell(row, c.Key)
		}
		rows[i] = cells
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var photos int
	var bytes int64
	for _, row := range t.rows {
		photos += row.Photos
		bytes += row.FilesizeBytes
	}
	p := t.pagination
	if _, err := fmt.Fprintln(w, tbl.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "page %d of %d, %s posts with galleries; this page: %s photos, %s bytes (%s)\n",
		p.Page, p.TotalPages, humanize.Comma(int64(p.TotalItems)),
		humanize.Comma(int64(photos)), humanize.Comma(bytes), gallery.FormatMegabytes(bytes)); err != nil {
		return err
	}
	if !t.ShowErrors {
		return nil
	}
	for _, row := range t.rows {
		for _, e := range row.Errors {
			if _, err := fmt.Fprintf(w, "post %d asset %d %s: %s %s\n", row.PostID, e.AssetID, e.Name, e.Reason, e.Path); err != nil {
				return err
			}
		}
	}
	return nil
}
