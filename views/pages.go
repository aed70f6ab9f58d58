package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const pageStyle = `<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#1d2327}
table.galleries{border-collapse:collapse;width:100%}
table.galleries th,table.galleries td{border-bottom:1px solid #dcdcde;padding:.4rem .6rem;text-align:left}
.column-id,.column-galleries,.column-photos{width:100px}
.column-date,.column-filesize{width:120px}
.errors{color:#b32d2e;font-size:.85em}
.tablenav{margin:.5rem 0;display:flex;gap:1rem}
</style>`

func page(title string, body func(ctx context.Context, w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title>`+pageStyle+`</head><body><div class="wrap">`); err != nil {
			return err
		}
		if err := body(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div></body></html>`)
		return err
	})
}

// ReportPage wraps the gallery table in the admin page shell.
func ReportPage(title, csrfToken string, tbl *HTMLTable) templ.Component {
	return page(title, func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>`+templ.EscapeString(title)+`</h1>`+
			`<form method="post" action="/admin/logout/"><input type="hidden" name="_csrf" value="`+templ.EscapeString(csrfToken)+`"><button type="submit">Log out</button></form>`+
			`<form method="get">`); err != nil {
			return err
		}
		if err := tbl.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</form>`+
			`<h2>Attach image</h2>`+
			`<form method="post" action="/admin/media/upload/" enctype="multipart/form-data">`+
			`<input type="hidden" name="_csrf" value="`+templ.EscapeString(csrfToken)+`">`+
			`<label>Post ID <input type="number" name="post_id" min="1" required></label> `+
			`<input type="file" name="image" accept="image/*" required> `+
			`<button type="submit">Upload</button></form>`)
		return err
	})
}

// LoginPage renders the admin password form.
func LoginPage(title string, showError bool, csrfToken string) templ.Component {
	return page(title, func(ctx context.Context, w io.Writer) error {
		msg := ""
		if showError {
			msg = `<p class="errors">Invalid password.</p>`
		}
		_, err := io.WriteString(w, `<h1>`+templ.EscapeString(title)+`</h1>`+msg+
			`<form method="post" action="/admin/login/">`+
			`<input type="hidden" name="_csrf" value="`+templ.EscapeString(csrfToken)+`">`+
			`<label>Password <input type="password" name="password" autofocus></label> `+
			`<button type="submit">Log in</button></form>`)
		return err
	})
}
