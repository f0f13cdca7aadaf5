package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

func esc(s string) string { return templ.EscapeString(s) }

// Layout wraps body in the document shell shared by every full page.
// jsonLD is emitted verbatim inside an application/ld+json script and must
// come from json.Marshal, which escapes "<".
func Layout(cfg SiteConfig, meta PageMeta, jsonLD string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		title := cfg.Name
		if meta.Title != "" && meta.Title != cfg.Name {
			title = meta.Title + " | " + cfg.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		buf.WriteString(`<!DOCTYPE html><html lang="`)
		buf.WriteString(esc(cfg.Locale.String()))
		buf.WriteString(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		buf.WriteString(`<title>` + esc(title) + `</title>`)
		if desc != "" {
			buf.WriteString(`<meta name="description" content="` + esc(desc) + `">`)
			buf.WriteString(`<meta property="og:description" content="` + esc(desc) + `">`)
		}
		buf.WriteString(`<meta property="og:title" content="` + esc(title) + `">`)
		buf.WriteString(`<meta property="og:type" content="` + esc(ogType) + `">`)
		if meta.URL != "" {
			buf.WriteString(`<meta property="og:url" content="` + esc(meta.URL) + `">`)
			buf.WriteString(`<link rel="canonical" href="` + esc(meta.URL) + `">`)
		}
		if meta.Image != "" {
			buf.WriteString(`<meta property="og:image" content="` + esc(meta.Image) + `">`)
		}
		buf.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + esc(cfg.Name) + `" href="/feed.xml">`)
		buf.WriteString(`<link rel="icon" href="/public/favicon.svg">`)
		buf.WriteString(`<link rel="stylesheet" href="/public/styles.css">`)
		buf.WriteString(`<script src="/public/site.js" defer></script>`)
		if jsonLD != "" {
			buf.WriteString(`<script type="application/ld+json">` + jsonLD + `</script>`)
		}
		buf.WriteString(`</head><body>`)
		buf.WriteString(`<header class="header"><a href="/" aria-label="` + esc(cfg.Name) + `"><img src="/public/logo.svg" alt="logo"></a></header>`)
		if err := body.Render(ctx, &buf); err != nil {
			return err
		}
		buf.WriteString(`</body></html>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}
