package prismic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Response is one page of search results.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Next returns the pagination cursor, or "" when no further pages exist.
func (r *Response) Next() string {
	if r.NextPage == nil {
		return ""
	}
	return *r.NextPage
}

func (r *Response) validate() error {
	if r.Results == nil {
		return malformed("missing results")
	}
	for i := range r.Results {
		if err := r.Results[i].validate(); err != nil {
			return fmt.Errorf("result %d: %w", i, err)
		}
	}
	return nil
}

// Document is a raw repository document. Data holds the custom-type fields
// and is decoded by the caller into its own projection.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *Timestamp      `json:"first_publication_date"`
	LastPublicationDate  *Timestamp      `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

func (d *Document) validate() error {
	if d.ID == "" {
		return malformed("document without id")
	}
	if d.Type == "" {
		return malformed("document %s without type", d.ID)
	}
	data := bytes.TrimSpace(d.Data)
	if len(data) == 0 || data[0] != '{' {
		return malformed("document %s: data is not an object", d.ID)
	}
	return nil
}

// FirstPublished returns the first publication time, or nil if the
// document was never published.
func (d *Document) FirstPublished() *time.Time {
	if d.FirstPublicationDate == nil {
		return nil
	}
	t := d.FirstPublicationDate.Time
	return &t
}

// DecodeData unmarshals the document's data object into v.
func (d *Document) DecodeData(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return malformed("document %s: %v", d.ID, err)
	}
	return nil
}

// Timestamp accepts the repository's "2006-01-02T15:04:05-0700" layout as
// well as RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	time.RFC3339Nano,
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format("2006-01-02T15:04:05-0700"))
}
