package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/richtext"
)

var testCfg = SiteConfig{
	Name:     "spacetraveling",
	URL:      "https://blog.example.com",
	Author:   "Equipe",
	Location: time.UTC,
	Locale:   language.BrazilianPortuguese,
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return buf.String()
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
	return &t
}

func TestFormatDate(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	late := time.Date(2021, 3, 25, 2, 30, 0, 0, time.UTC)
	tests := []struct {
		t      *time.Time
		loc    *time.Location
		locale language.Tag
		want   string
	}{
		{date(2022, time.March, 5), time.UTC, language.BrazilianPortuguese, "05 mar 2022"},
		{date(2021, time.February, 15), nil, language.BrazilianPortuguese, "15 fev 2021"},
		{date(2021, time.December, 1), time.UTC, language.English, "01 Dec 2021"},
		{date(2021, time.May, 9), time.UTC, language.MustParse("pt-PT"), "09 mai 2021"},
		{&late, sp, language.BrazilianPortuguese, "24 mar 2021"},
		{nil, time.UTC, language.BrazilianPortuguese, ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.t, tt.loc, tt.locale); got != tt.want {
			t.Errorf("FormatDate(%v, %v, %v) = %q, want %q", tt.t, tt.loc, tt.locale, got, tt.want)
		}
	}
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		in   []string
		want language.Tag
	}{
		{[]string{"pt-BR"}, language.BrazilianPortuguese},
		{[]string{"en-US,en;q=0.9"}, language.English},
		{[]string{"xx"}, language.BrazilianPortuguese},
		{nil, language.BrazilianPortuguese},
	}
	for _, tt := range tests {
		if got := MatchLocale(tt.in...); got != tt.want {
			t.Errorf("MatchLocale(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func listPosts(uids ...string) []listing.Post {
	posts := make([]listing.Post, len(uids))
	for i, uid := range uids {
		posts[i] = listing.Post{
			UID:                  uid,
			FirstPublicationDate: date(2021, time.March, 15),
			Data:                 listing.PostData{Title: "Post " + uid, Subtitle: "Sub " + uid, Author: "Danilo Vieira"},
		}
	}
	return posts
}

func TestHomeLoadMoreControl(t *testing.T) {
	page := listing.PostPagination{Results: listPosts("a", "b")}

	html := render(t, Home(testCfg, page, "/posts/more/?cursor=x"))
	if !strings.Contains(html, `data-load-more`) {
		t.Error("expected a load-more control")
	}
	if !strings.Contains(html, "Carregar mais posts") {
		t.Error("expected the pt-BR load-more label")
	}
	for _, want := range []string{`href="/post/a/"`, "Post b", "Sub a", "Danilo Vieira", "15 mar 2021"} {
		if !strings.Contains(html, want) {
			t.Errorf("home missing %q", want)
		}
	}

	html = render(t, Home(testCfg, page, ""))
	if strings.Contains(html, `data-load-more`) {
		t.Error("no load-more control expected when there is no next page")
	}
}

func TestPostListFragment(t *testing.T) {
	html := render(t, PostList(testCfg, listPosts("c"), ""))
	if strings.Contains(html, "<html") {
		t.Error("fragment must not include the page shell")
	}
	if !strings.Contains(html, `data-post href="/post/c/"`) {
		t.Errorf("fragment missing item: %s", html)
	}
	if strings.Contains(html, "data-load-more") {
		t.Error("last fragment must not carry a load-more control")
	}
}

func TestPostEscapesContent(t *testing.T) {
	post := detail.Post{
		UID:                  "xss",
		FirstPublicationDate: date(2022, time.March, 5),
		Data: detail.PostData{
			Title:  `<script>alert(1)</script>`,
			Author: "Joseph",
			Banner: detail.Banner{URL: "javascript:alert(1)"},
			Content: []detail.Block{{
				Heading: "Seção",
				Body:    richtext.RichText{{Type: richtext.Paragraph, Text: "corpo"}},
			}},
		},
	}
	html := render(t, Post(testCfg, post, 4))
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("title was not escaped")
	}
	if strings.Contains(html, "javascript:") {
		t.Error("unsafe banner URL was rendered")
	}
	for _, want := range []string{"05 mar 2022", "4 min", "<h2>Seção</h2>", "<p>corpo</p>", `"@type":"BlogPosting"`} {
		if !strings.Contains(html, want) {
			t.Errorf("post page missing %q", want)
		}
	}
}

func TestFallbackPlaceholder(t *testing.T) {
	html := render(t, Fallback(testCfg, "novo-post"))
	if !strings.Contains(html, "Carregando...") {
		t.Error("expected loading indicator")
	}
	if !strings.Contains(html, `data-fallback="/post/novo-post/?partial=post"`) {
		t.Errorf("expected fallback source, got %s", html)
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://blog.example.com", nil, "https://blog.example.com"},
		{"https://blog.example.com", []string{"post", "a"}, "https://blog.example.com/post/a/"},
		{"https://blog.example.com/base/", []string{"post", "a"}, "https://blog.example.com/base/post/a/"},
	}
	for _, tt := range tests {
		if got := buildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("buildURL(%q, %q) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}
