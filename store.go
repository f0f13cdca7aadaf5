package spacetraveling

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrPageNotFound is returned when no page is stored for a path.
var ErrPageNotFound = errors.New("page not found")

// PageStore persists generated pages in SQLite so a restart serves the last
// generation instead of going back to the repository.
type PageStore struct {
	db *sql.DB
}

// NewPageStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and creates the schema.
func NewPageStore(path string) (*PageStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the sweep write while requests read; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &PageStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *PageStore) Close() error {
	return s.db.Close()
}

func (s *PageStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    path TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    body BLOB NOT NULL,
    generated_at INTEGER NOT NULL,
    revalidate_after INTEGER NOT NULL
);
`)
	return err
}

// Get returns the page stored for path.
func (s *PageStore) Get(path string) (Page, error) {
	var p Page
	var generated, revalidate int64
	err := s.db.QueryRow(`SELECT path, state, body, generated_at, revalidate_after FROM pages WHERE path = ?`, path).
		Scan(&p.Path, &p.State, &p.Body, &generated, &revalidate)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrPageNotFound
	}
	if err != nil {
		return Page{}, err
	}
	p.GeneratedAt = time.Unix(0, generated).UTC()
	p.RevalidateAfter = time.Unix(0, revalidate).UTC()
	return p, nil
}

// Put upserts a page.
func (s *PageStore) Put(p Page) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO pages (path, state, body, generated_at, revalidate_after) VALUES (?, ?, ?, ?, ?)`,
		p.Path, p.State, p.Body, p.GeneratedAt.UnixNano(), p.RevalidateAfter.UnixNano())
	return err
}

// Delete removes the page stored for path. Deleting a missing page is not
// an error.
func (s *PageStore) Delete(path string) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE path = ?`, path)
	return err
}

// List returns every stored page without its body, ordered by path.
func (s *PageStore) List() ([]Page, error) {
	rows, err := s.db.Query(`SELECT path, state, generated_at, revalidate_after FROM pages ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		var generated, revalidate int64
		if err := rows.Scan(&p.Path, &p.State, &generated, &revalidate); err != nil {
			return nil, err
		}
		p.GeneratedAt = time.Unix(0, generated).UTC()
		p.RevalidateAfter = time.Unix(0, revalidate).UTC()
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
