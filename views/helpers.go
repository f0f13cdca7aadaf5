package views

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eringen/spacetraveling/detail"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostPath is the site-relative path of a post page.
func PostPath(slug string) string {
	return "/post/" + url.PathEscape(slug) + "/"
}

// PostURL is the absolute URL of a post page.
func PostURL(cfg SiteConfig, slug string) string {
	return buildURL(cfg.URL, "post", slug)
}

// ReadingTimeLabel renders a reading time in minutes, e.g. "4 min".
func ReadingTimeLabel(minutes int) string {
	return fmt.Sprintf("%d min", minutes)
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post detail.Post) string {
	postURL := PostURL(cfg, post.UID)
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": post.Data.Title,
		"url":      postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.Data.Subtitle != "" {
		data["description"] = post.Data.Subtitle
	}
	if d := isoDate(post.FirstPublicationDate); d != "" {
		data["datePublished"] = d
	}
	if img := bannerURL(post); img != "" {
		data["image"] = img
	}
	if post.Data.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Data.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
