package views

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/a-h/templ"
)

// AdminLogin renders the ops panel login form.
func AdminLogin(cfg SiteConfig, showError bool, csrfToken string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<main class="container admin"><h1>Admin</h1>`)
		if showError {
			buf.WriteString(`<p class="error" role="alert">Invalid password.</p>`)
		}
		buf.WriteString(`<form method="post" action="/admin/login/">`)
		writeCSRF(&buf, csrfToken)
		buf.WriteString(`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>`)
		buf.WriteString(`<button type="submit">Log in</button></form></main>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
	return Layout(cfg, PageMeta{Title: "Admin"}, "", body)
}

// AdminDashboard lists generated pages with their freshness and offers
// on-demand revalidation per path or for the whole site.
func AdminDashboard(cfg SiteConfig, rows []PageRow, message string, csrfToken string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<main class="container admin"><h1>Pages</h1>`)
		if message != "" {
			buf.WriteString(`<p class="notice" role="status">` + esc(message) + `</p>`)
		}
		buf.WriteString(`<form method="post" action="/admin/revalidate/">`)
		writeCSRF(&buf, csrfToken)
		buf.WriteString(`<button type="submit">Revalidate all</button></form>`)

		buf.WriteString(`<table><thead><tr><th>Path</th><th>State</th><th>Generated</th><th></th></tr></thead><tbody>`)
		for _, r := range rows {
			buf.WriteString(`<tr><td><a href="` + esc(r.Path) + `">` + esc(r.Path) + `</a></td>`)
			buf.WriteString(`<td>` + esc(r.State))
			if r.Stale {
				buf.WriteString(` <span class="stale">stale</span>`)
			}
			buf.WriteString(`</td><td>`)
			if !r.GeneratedAt.IsZero() {
				buf.WriteString(`<time datetime="` + r.GeneratedAt.UTC().Format(time.RFC3339) + `">`)
				buf.WriteString(esc(r.GeneratedAt.In(location(cfg)).Format("2006-01-02 15:04")))
				buf.WriteString(`</time>`)
			}
			buf.WriteString(`</td><td><form method="post" action="/admin/revalidate/">`)
			writeCSRF(&buf, csrfToken)
			buf.WriteString(`<input type="hidden" name="path" value="` + esc(r.Path) + `">`)
			buf.WriteString(`<button type="submit">Revalidate</button></form></td></tr>`)
		}
		buf.WriteString(`</tbody></table>`)

		buf.WriteString(`<form method="post" action="/admin/logout/">`)
		writeCSRF(&buf, csrfToken)
		buf.WriteString(`<button type="submit">Log out</button></form></main>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
	return Layout(cfg, PageMeta{Title: "Admin"}, "", body)
}

func writeCSRF(buf *bytes.Buffer, token string) {
	buf.WriteString(`<input type="hidden" name="_csrf" value="` + esc(token) + `">`)
}

func location(cfg SiteConfig) *time.Location {
	if cfg.Location == nil {
		return time.UTC
	}
	return cfg.Location
}
