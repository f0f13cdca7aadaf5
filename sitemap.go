package spacetraveling

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) sitemapXML(posts []listing.Post) ([]byte, error) {
	urls := []sitemapURL{
		{Loc: a.site.URL},
	}
	for _, p := range posts {
		u := sitemapURL{Loc: views.PostURL(a.site, p.UID)}
		if p.FirstPublicationDate != nil {
			u.LastMod = p.FirstPublicationDate.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(sitemap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// robotsTxt allows everything but the ops panel and points at the sitemap.
func (a *App) robotsTxt() []byte {
	return []byte(fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s%s\n", a.site.URL, sitemapPath))
}
