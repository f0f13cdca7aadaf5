package spacetraveling

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eringen/spacetraveling/prismic/prismictest"
)

func TestExport(t *testing.T) {
	srv := prismictest.NewServer(postDocs(12))
	defer srv.Close()

	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "styles.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := New(testConfig(t, srv.Endpoint()), ViewFuncs{}, WithStaticDir(static))
	a.Echo.Logger.SetOutput(io.Discard)

	out := t.TempDir()
	if err := a.Export(context.Background(), out); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	read := func(rel string) string {
		t.Helper()
		b, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
		return string(b)
	}

	if home := read("index.html"); !strings.Contains(home, `data-href="/posts/more/1/"`) {
		t.Error("home should chain to the first static batch")
	}
	if batch := read("posts/more/1/index.html"); !strings.Contains(batch, "Post 6<") || !strings.Contains(batch, `data-href="/posts/more/2/"`) {
		t.Errorf("batch 1 = %s", batch)
	}
	if batch := read("posts/more/2/index.html"); !strings.Contains(batch, "Post 12<") || strings.Contains(batch, "data-load-more") {
		t.Errorf("last batch = %s", batch)
	}
	if _, err := os.Stat(filepath.Join(out, "posts", "more", "3")); !os.IsNotExist(err) {
		t.Error("no batch expected past the last page")
	}

	for _, rel := range []string{"post/post-1/index.html", "post/post-12/index.html"} {
		if !strings.Contains(read(rel), "<article") {
			t.Errorf("%s is not a post page", rel)
		}
	}
	if !strings.Contains(read("sitemap.xml"), "/post/post-12/") {
		t.Error("sitemap missing last post")
	}
	if !strings.Contains(read("feed.xml"), "<title>Post 12</title>") {
		t.Error("feed missing last post")
	}
	read("404.html")
	if !strings.Contains(read("robots.txt"), "Disallow: /admin/") {
		t.Error("robots.txt not exported")
	}
	if !strings.Contains(read("public/site.js"), "data-load-more") {
		t.Error("page script not exported")
	}
	if read("public/styles.css") != "body{}" {
		t.Error("static assets not copied")
	}
}
