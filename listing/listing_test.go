package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/prismic/prismictest"
)

func fakeRepo(t *testing.T, n int) (*prismictest.Server, *prismic.Client) {
	t.Helper()
	docs := make([]prismictest.Doc, n)
	for i := range docs {
		docs[i] = prismictest.Doc{
			UID:                  fmt.Sprintf("post-%02d", i+1),
			Type:                 DocumentType,
			FirstPublicationDate: "2022-03-05T10:00:00+0000",
			Data: map[string]any{
				"title":    fmt.Sprintf("Post %d", i+1),
				"subtitle": "Pensando em sincronização",
				"author":   "Joseph Oliveira",
				"banner":   map[string]any{"url": "https://images.example.com/b.png"},
			},
		}
	}
	docs = append(docs, prismictest.Doc{UID: "about", Type: "page", Data: map[string]any{"title": "About"}})
	srv := prismictest.NewServer(docs)
	t.Cleanup(srv.Close)
	c, err := prismic.New(prismic.Config{Endpoint: srv.Endpoint()})
	if err != nil {
		t.Fatalf("prismic.New failed: %v", err)
	}
	return srv, c
}

func uids(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.UID
	}
	return out
}

func TestInitialFetchesFirstPage(t *testing.T) {
	_, c := fakeRepo(t, 12)

	page, err := Initial(context.Background(), c)
	if err != nil {
		t.Fatalf("Initial failed: %v", err)
	}
	if len(page.Results) != PageSize {
		t.Fatalf("results = %d, want %d", len(page.Results), PageSize)
	}
	if !page.HasMore() {
		t.Fatal("expected a next page")
	}
	first := page.Results[0]
	if first.Data.Title != "Post 1" || first.Data.Author != "Joseph Oliveira" {
		t.Errorf("unexpected projection: %+v", first.Data)
	}
	if first.FirstPublicationDate == nil {
		t.Error("expected a publication date")
	}
}

func TestLoadMoreExhaustsInOrder(t *testing.T) {
	_, c := fakeRepo(t, 12)
	ctx := context.Background()

	initial, err := Initial(ctx, c)
	if err != nil {
		t.Fatalf("Initial failed: %v", err)
	}
	ctrl := NewController(c, initial)

	for ctrl.State().HasMore() {
		if _, err := ctrl.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore failed: %v", err)
		}
	}
	state := ctrl.State()
	if state.NextPage != "" {
		t.Errorf("NextPage = %q, want empty", state.NextPage)
	}
	if len(state.Results) != 12 {
		t.Fatalf("results = %d, want 12", len(state.Results))
	}
	for i, uid := range uids(state.Results) {
		if want := fmt.Sprintf("post-%02d", i+1); uid != want {
			t.Errorf("results[%d] = %q, want %q", i, uid, want)
		}
	}

	if _, err := ctrl.LoadMore(ctx); !errors.Is(err, ErrNoMorePages) {
		t.Errorf("LoadMore after exhaustion: expected ErrNoMorePages, got %v", err)
	}
}

func TestMergeConcatenatesWithoutDedup(t *testing.T) {
	a := PostPagination{NextPage: "p2", Results: []Post{{UID: "a"}, {UID: "b"}}}
	b := PostPagination{NextPage: "p3", Results: []Post{{UID: "b"}, {UID: "c"}}}
	c := PostPagination{NextPage: "", Results: []Post{{UID: "d"}}}

	got := a.Merge(b).Merge(c)
	want := []string{"a", "b", "b", "c", "d"}
	if fmt.Sprint(uids(got.Results)) != fmt.Sprint(want) {
		t.Errorf("Merge = %v, want %v", uids(got.Results), want)
	}
	if got.HasMore() {
		t.Error("last page cursor should replace earlier ones")
	}
	if len(a.Results) != 2 || a.NextPage != "p2" {
		t.Error("Merge must not modify its receiver")
	}
}

func TestMergeDoesNotAlias(t *testing.T) {
	base := PostPagination{Results: make([]Post, 1, 4)}
	base.Results[0] = Post{UID: "a"}
	x := base.Merge(PostPagination{Results: []Post{{UID: "x"}}})
	y := base.Merge(PostPagination{Results: []Post{{UID: "y"}}})
	if x.Results[1].UID != "x" || y.Results[1].UID != "y" {
		t.Errorf("merged states share storage: %v %v", uids(x.Results), uids(y.Results))
	}
}

func TestDrain(t *testing.T) {
	_, c := fakeRepo(t, 7)
	all, err := Drain(context.Background(), c)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(all.Results) != 7 || all.HasMore() {
		t.Errorf("Drain = %d results, more=%v", len(all.Results), all.HasMore())
	}
}

func TestLoadMoreFailureKeepsState(t *testing.T) {
	srv, c := fakeRepo(t, 12)
	ctx := context.Background()
	initial, err := Initial(ctx, c)
	if err != nil {
		t.Fatalf("Initial failed: %v", err)
	}
	ctrl := NewController(c, initial)

	srv.FailWith(500)
	_, err = ctrl.LoadMore(ctx)
	var reqErr *prismic.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if got := ctrl.State(); len(got.Results) != PageSize || got.NextPage != initial.NextPage {
		t.Error("failed load must not change state")
	}

	srv.FailWith(0)
	if _, err := ctrl.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore after recovery failed: %v", err)
	}
}

func TestLoadMoreMalformedPage(t *testing.T) {
	srv, c := fakeRepo(t, 12)
	ctx := context.Background()
	initial, err := Initial(ctx, c)
	if err != nil {
		t.Fatalf("Initial failed: %v", err)
	}
	srv.RespondWith(`{"next_page":null,"results":[{"id":"1","type":"posts","data":{"title":1}}]}`)
	_, err = NewController(c, initial).LoadMore(ctx)
	if !errors.Is(err, prismic.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error) {
	return nil, errors.New("not used")
}

func (b *blockingSource) FetchPage(ctx context.Context, cursor string) (*prismic.Response, error) {
	close(b.started)
	<-b.release
	return &prismic.Response{Results: []prismic.Document{}}, nil
}

func TestLoadMoreRejectsOverlappingCalls(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	ctrl := NewController(src, PostPagination{NextPage: "https://repo.example.com/p2"})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.LoadMore(context.Background())
		done <- err
	}()
	<-src.started

	if _, err := ctrl.LoadMore(context.Background()); !errors.Is(err, ErrLoadInProgress) {
		t.Errorf("expected ErrLoadInProgress, got %v", err)
	}

	close(src.release)
	if err := <-done; err != nil {
		t.Fatalf("first LoadMore failed: %v", err)
	}
	if ctrl.State().HasMore() {
		t.Error("expected exhausted cursor after final page")
	}
}
