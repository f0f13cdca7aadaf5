// Package prismictest provides an in-memory content repository served over
// HTTP for tests.
package prismictest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// MasterRef is the ref advertised by the fake repository.
const MasterRef = "master-ref"

var reAt = regexp.MustCompile(`at\(([^,]+),"((?:[^"\\]|\\.)*)"\)`)

// Doc is a document stored in the fake repository.
type Doc struct {
	UID                  string
	Type                 string
	FirstPublicationDate string // empty means never published
	Data                 map[string]any
}

// Server is a fake repository. Documents are returned in insertion order.
type Server struct {
	*httptest.Server

	// Token, when set, is required as access_token on every request.
	Token string

	mu       sync.Mutex
	docs     []Doc
	searches int
	failWith int
	rawBody  string
}

// NewServer starts a fake repository holding docs.
func NewServer(docs []Doc) *Server {
	s := &Server{docs: docs}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", s.handleAPI)
	mux.HandleFunc("/api/v2/documents/search", s.handleSearch)
	s.Server = httptest.NewServer(mux)
	return s
}

// Endpoint returns the API root to configure a client with.
func (s *Server) Endpoint() string {
	return s.URL + "/api/v2"
}

// SetDocs replaces the stored documents.
func (s *Server) SetDocs(docs []Doc) {
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
}

// Searches reports how many search requests were served.
func (s *Server) Searches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches
}

// FailWith makes subsequent searches answer with status. Zero restores
// normal behavior.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failWith = status
	s.mu.Unlock()
}

// RespondWith makes subsequent searches answer 200 with a raw body.
// Empty restores normal behavior.
func (s *Server) RespondWith(body string) {
	s.mu.Lock()
	s.rawBody = body
	s.mu.Unlock()
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.Token != "" && r.URL.Query().Get("access_token") != s.Token {
		http.Error(w, `{"error":"invalid access token"}`, http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	writeJSON(w, map[string]any{
		"refs": []map[string]any{
			{"id": "master", "ref": MasterRef, "label": "Master", "isMasterRef": true},
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	s.mu.Lock()
	s.searches++
	docs := append([]Doc(nil), s.docs...)
	failWith, rawBody := s.failWith, s.rawBody
	s.mu.Unlock()

	if failWith != 0 {
		http.Error(w, "upstream failure", failWith)
		return
	}
	if rawBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rawBody))
		return
	}

	q := r.URL.Query()
	if q.Get("ref") != MasterRef {
		http.Error(w, `{"error":"unknown ref"}`, http.StatusBadRequest)
		return
	}

	matched := filter(docs, q.Get("q"))
	pageSize := atoiDefault(q.Get("pageSize"), 20)
	page := atoiDefault(q.Get("page"), 1)
	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	fetch := map[string]bool{}
	for _, f := range strings.Split(q.Get("fetch"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			fetch[f] = true
		}
	}

	results := make([]map[string]any, 0, end-start)
	for _, d := range matched[start:end] {
		results = append(results, render(d, fetch))
	}

	var next any
	if page < totalPages {
		nq := r.URL.Query()
		nq.Set("page", strconv.Itoa(page+1))
		next = s.URL + r.URL.Path + "?" + nq.Encode()
	}

	writeJSON(w, map[string]any{
		"page":               page,
		"results_per_page":   pageSize,
		"results_size":       len(results),
		"total_results_size": total,
		"total_pages":        totalPages,
		"next_page":          next,
		"prev_page":          nil,
		"results":            results,
	})
}

func filter(docs []Doc, query string) []Doc {
	matches := reAt.FindAllStringSubmatch(query, -1)
	var out []Doc
	for _, d := range docs {
		ok := true
		for _, m := range matches {
			path, value := m[1], m[2]
			switch {
			case path == "document.type":
				ok = ok && d.Type == value
			case strings.HasPrefix(path, "my.") && strings.HasSuffix(path, ".uid"):
				docType := strings.TrimSuffix(strings.TrimPrefix(path, "my."), ".uid")
				ok = ok && d.Type == docType && d.UID == value
			}
		}
		if ok {
			out = append(out, d)
		}
	}
	return out
}

func render(d Doc, fetch map[string]bool) map[string]any {
	data := map[string]any{}
	for k, v := range d.Data {
		if len(fetch) == 0 || fetch[d.Type+"."+k] {
			data[k] = v
		}
	}
	var published any
	if d.FirstPublicationDate != "" {
		published = d.FirstPublicationDate
	}
	return map[string]any{
		"id":                     "id-" + d.UID,
		"uid":                    d.UID,
		"type":                   d.Type,
		"href":                   "",
		"tags":                   []string{},
		"lang":                   "pt-br",
		"first_publication_date": published,
		"last_publication_date":  published,
		"data":                   data,
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
