package spacetraveling

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/prismic/prismictest"
)

var (
	reMoreHref = regexp.MustCompile(`data-load-more data-href="([^"]+)"`)
	reCSRF     = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)
)

func postDoc(n int) prismictest.Doc {
	return prismictest.Doc{
		UID:                  fmt.Sprintf("post-%d", n),
		Type:                 detail.DocumentType,
		FirstPublicationDate: "2022-03-05T10:00:00+0000",
		Data: map[string]any{
			"title":    fmt.Sprintf("Post %d", n),
			"subtitle": fmt.Sprintf("Subtitle %d", n),
			"author":   "Joseph Oliveira",
			"content": []any{
				map[string]any{
					"heading": "Proin et varius",
					"body": []any{
						map[string]any{"type": "paragraph", "text": "Lorem ipsum dolor sit amet", "spans": []any{}},
					},
				},
			},
		},
	}
}

func postDocs(n int) []prismictest.Doc {
	docs := make([]prismictest.Doc, n)
	for i := range docs {
		docs[i] = postDoc(i + 1)
	}
	return docs
}

func testConfig(t *testing.T, endpoint string) SiteConfig {
	t.Helper()
	return SiteConfig{
		URL:             "https://blog.example.com",
		PrismicEndpoint: endpoint,
		AdminPassword:   "secret",
		SessionSecret:   "0123456789abcdef0123456789abcdef",
		DatabasePath:    filepath.Join(t.TempDir(), "pages.db"),
		PrerenderCount:  2,
	}
}

func newTestApp(t *testing.T, docs []prismictest.Doc) (*App, *prismictest.Server) {
	t.Helper()
	srv := prismictest.NewServer(docs)
	t.Cleanup(srv.Close)

	a := New(testConfig(t, srv.Endpoint()), ViewFuncs{}, WithStaticDir(t.TempDir()))
	a.Echo.Logger.SetOutput(io.Discard)
	if err := a.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, srv
}

// browser carries cookies between requests like a user agent would.
type browser struct {
	t       *testing.T
	a       *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, a: a, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.a.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}

func nextHref(t *testing.T, body string) string {
	t.Helper()
	m := reMoreHref.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return html.UnescapeString(m[1])
}

func TestHomeListsFirstPage(t *testing.T) {
	a, _ := newTestApp(t, postDocs(12))
	rec := newBrowser(t, a).get("/")

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for i := 1; i <= 5; i++ {
		if !strings.Contains(body, fmt.Sprintf("Post %d<", i)) {
			t.Errorf("home missing Post %d", i)
		}
	}
	if strings.Contains(body, "Post 6<") {
		t.Error("home shows more than one page")
	}
	if !strings.Contains(body, "05 mar 2022") {
		t.Error("expected formatted publication date")
	}
	if href := nextHref(t, body); !strings.HasPrefix(href, "/posts/more/?cursor=") {
		t.Errorf("load-more href = %q", href)
	}
}

func TestLoadMoreWalksAllPages(t *testing.T) {
	a, _ := newTestApp(t, postDocs(12))
	b := newBrowser(t, a)

	href := nextHref(t, b.get("/").Body.String())
	var batches [][]int
	for href != "" {
		rec := b.get(href)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", href, rec.Code)
		}
		body := rec.Body.String()
		if strings.Contains(body, "<html") {
			t.Fatal("load-more answered with a full page")
		}
		var batch []int
		for i := 1; i <= 12; i++ {
			if strings.Contains(body, fmt.Sprintf("Post %d<", i)) {
				batch = append(batch, i)
			}
		}
		batches = append(batches, batch)
		href = nextHref(t, body)
	}

	got := fmt.Sprint(batches)
	if want := "[[6 7 8 9 10] [11 12]]"; got != want {
		t.Errorf("batches = %s, want %s", got, want)
	}
}

func TestHomeWithoutMorePages(t *testing.T) {
	a, _ := newTestApp(t, postDocs(3))
	body := newBrowser(t, a).get("/").Body.String()
	if strings.Contains(body, "data-load-more") {
		t.Error("no load-more control expected for a single page")
	}
}

func TestLoadMoreRejectsBadCursor(t *testing.T) {
	a, _ := newTestApp(t, postDocs(3))
	b := newBrowser(t, a)

	tests := []string{
		"/posts/more/",
		"/posts/more/?cursor=" + url.QueryEscape("https://evil.example.com/api/v2/documents/search?page=2"),
	}
	for _, target := range tests {
		if rec := b.get(target); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", target, rec.Code)
		}
	}
}

func TestPrerenderedPost(t *testing.T) {
	a, srv := newTestApp(t, postDocs(3))
	searches := srv.Searches()

	rec := newBrowser(t, a).get("/post/post-1/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /post/post-1/ = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Post 1", "Joseph Oliveira", "1 min", "Proin et varius", "Lorem ipsum dolor sit amet"} {
		if !strings.Contains(body, want) {
			t.Errorf("post page missing %q", want)
		}
	}
	if srv.Searches() != searches {
		t.Error("a pre-rendered post must be served without asking the repository")
	}
	if got := a.Resolver.State("post-1"); got != detail.Prerendered {
		t.Errorf("State(post-1) = %v, want %v", got, detail.Prerendered)
	}
}

func TestFallbackResolvesPost(t *testing.T) {
	a, _ := newTestApp(t, postDocs(5))
	b := newBrowser(t, a)

	rec := b.get("/post/post-5/")
	if rec.Code != http.StatusOK {
		t.Fatalf("first GET = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Carregando...") || !strings.Contains(body, `data-fallback="/post/post-5/?partial=post"`) {
		t.Fatalf("expected fallback placeholder, got %s", body)
	}
	if got := a.Resolver.State("post-5"); got != detail.FallbackPending {
		t.Errorf("State = %v, want %v", got, detail.FallbackPending)
	}

	rec = b.get("/post/post-5/?partial=post")
	if rec.Code != http.StatusOK {
		t.Fatalf("partial GET = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "<html") || !strings.Contains(body, "Post 5") {
		t.Errorf("partial should be the bare article, got %s", body)
	}
	if got := a.Resolver.State("post-5"); got != detail.Resolved {
		t.Errorf("State = %v, want %v", got, detail.Resolved)
	}

	rec = b.get("/post/post-5/")
	if body := rec.Body.String(); rec.Code != http.StatusOK || !strings.Contains(body, "<html") || !strings.Contains(body, "Post 5") {
		t.Errorf("later GET should serve the generated page, got %d", rec.Code)
	}
}

func TestMissingPostIs404(t *testing.T) {
	a, _ := newTestApp(t, postDocs(2))
	b := newBrowser(t, a)

	if rec := b.get("/post/missing/"); rec.Code != http.StatusOK {
		t.Fatalf("first GET = %d, want fallback 200", rec.Code)
	}
	if rec := b.get("/post/missing/?partial=post"); rec.Code != http.StatusNotFound {
		t.Errorf("partial GET = %d, want 404", rec.Code)
	}
	rec := b.get("/post/missing/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET after resolution = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Post não encontrado") {
		t.Error("expected the not found page")
	}
}

func TestSitemapAndFeed(t *testing.T) {
	a, _ := newTestApp(t, postDocs(7))
	b := newBrowser(t, a)

	rec := b.get("/sitemap.xml")
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("sitemap content type = %q", ct)
	}
	for _, want := range []string{"<loc>https://blog.example.com</loc>", "<loc>https://blog.example.com/post/post-7/</loc>", "<lastmod>2022-03-05</lastmod>"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("sitemap missing %q", want)
		}
	}

	rec = b.get("/feed.xml")
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("feed content type = %q", ct)
	}
	for _, want := range []string{"<title>Post 7</title>", "<description>Subtitle 1</description>", "<language>pt-BR</language>"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("feed missing %q", want)
		}
	}

	rec = b.get("/robots.txt")
	if !strings.Contains(rec.Body.String(), "Sitemap: https://blog.example.com/sitemap.xml") {
		t.Errorf("robots.txt = %q", rec.Body.String())
	}
}

func TestUpstreamFailureIs500(t *testing.T) {
	a, srv := newTestApp(t, postDocs(2))
	if err := a.Cache.Invalidate("/"); err != nil {
		t.Fatal(err)
	}
	srv.FailWith(http.StatusInternalServerError)

	rec := newBrowser(t, a).get("/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("GET / = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Algo deu errado") {
		t.Error("expected the server error page")
	}
}

func TestStalePageServedWhileRevalidating(t *testing.T) {
	a, srv := newTestApp(t, postDocs(2))
	b := newBrowser(t, a)

	later := time.Now().Add(2 * detail.RevalidateInterval)
	a.Cache.now = func() time.Time { return later }
	renamed := postDocs(2)
	renamed[0].Data["title"] = "Renamed"
	srv.SetDocs(renamed)

	if body := b.get("/").Body.String(); !strings.Contains(body, "Post 1<") {
		t.Error("stale page should be served while it regenerates")
	}
	a.Cache.Wait()
	if body := b.get("/").Body.String(); !strings.Contains(body, "Renamed") {
		t.Error("regenerated page should be served afterwards")
	}
}

func TestPostAndMoreHelpers(t *testing.T) {
	slugTests := []struct {
		path string
		slug string
		ok   bool
	}{
		{"/post/como-utilizar-hooks/", "como-utilizar-hooks", true},
		{"/post/a%20b/", "a b", true},
		{"/post/", "", false},
		{"/post/a/b/", "", false},
		{"/post/a", "", false},
		{"/", "", false},
	}
	for _, tt := range slugTests {
		slug, ok := postSlug(tt.path)
		if slug != tt.slug || ok != tt.ok {
			t.Errorf("postSlug(%q) = %q, %v, want %q, %v", tt.path, slug, ok, tt.slug, tt.ok)
		}
	}

	if got := moreHref(""); got != "" {
		t.Errorf("moreHref(\"\") = %q, want empty", got)
	}
	if got := moreHref("https://repo/api?page=2&ref=x"); got != "/posts/more/?cursor=https%3A%2F%2Frepo%2Fapi%3Fpage%3D2%26ref%3Dx" {
		t.Errorf("moreHref = %q", got)
	}
}
