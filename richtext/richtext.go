// Package richtext converts structured rich-text fields to plain text and
// to HTML rendered as a templ component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
)

// Block types.
const (
	Paragraph    = "paragraph"
	Preformatted = "preformatted"
	Heading1     = "heading1"
	Heading2     = "heading2"
	Heading3     = "heading3"
	Heading4     = "heading4"
	Heading5     = "heading5"
	Heading6     = "heading6"
	ListItem     = "list-item"
	OListItem    = "o-list-item"
	Image        = "image"
	Embed        = "embed"
)

// Span types.
const (
	Strong    = "strong"
	Em        = "em"
	Hyperlink = "hyperlink"
	Label     = "label"
)

// RichText is an ordered sequence of blocks.
type RichText []Block

// Block is one rich-text node. Text-bearing blocks use Text and Spans;
// images use URL, Alt and Dimensions; embeds use Oembed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Oembed     `json:"oembed,omitempty"`
}

// Span marks a formatted range of a block's text. Start and End are
// UTF-16 offsets.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dimensions is the pixel size of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Oembed is the provider payload of an embed block.
type Oembed struct {
	Type     string `json:"type"`
	EmbedURL string `json:"embed_url"`
	HTML     string `json:"html"`
}

// AsText concatenates the text of every text-bearing block, separated by sep.
func AsText(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		switch b.Type {
		case Image, Embed:
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, sep)
}

// AsHTML returns a templ.Component that renders rt as HTML. Embed HTML is
// written as received from the repository.
func AsHTML(rt RichText) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, rt)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderHTML writes the HTML representation of rt to buf.
func RenderHTML(buf *bytes.Buffer, rt RichText) {
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range rt {
		switch b.Type {
		case ListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			writeSpans(buf, b.Text, b.Spans)
			buf.WriteString("</li>")
			continue
		case OListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			writeSpans(buf, b.Text, b.Spans)
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()

		switch b.Type {
		case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
			tag := "h" + b.Type[len(b.Type)-1:]
			buf.WriteString("<" + tag + ">")
			writeSpans(buf, b.Text, b.Spans)
			buf.WriteString("</" + tag + ">")
		case Preformatted:
			buf.WriteString("<pre>")
			writeSpans(buf, b.Text, b.Spans)
			buf.WriteString("</pre>")
		case Image:
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` loading="lazy" decoding="async"/></p>`)
		case Embed:
			if b.Oembed == nil {
				continue
			}
			buf.WriteString(`<div data-oembed="` + SafeURL(b.Oembed.EmbedURL) + `" data-oembed-type="` + html.EscapeString(b.Oembed.Type) + `">`)
			buf.WriteString(b.Oembed.HTML)
			buf.WriteString("</div>")
		default:
			buf.WriteString("<p>")
			writeSpans(buf, b.Text, b.Spans)
			buf.WriteString("</p>")
		}
	}
	flushList()
	flushOrderedList()
}

// writeSpans writes text with its spans applied. Overlapping spans are
// closed and reopened at boundaries so the output is always well nested.
func writeSpans(buf *bytes.Buffer, text string, spans []Span) {
	units := utf16.Encode([]rune(text))
	n := len(units)

	var active []Span
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		if s.Start < s.End {
			active = append(active, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Start != active[j].Start {
			return active[i].Start < active[j].Start
		}
		return active[i].End > active[j].End
	})

	points := []int{0, n}
	for _, s := range active {
		points = append(points, s.Start, s.End)
	}
	sort.Ints(points)

	var stack []Span
	next := 0
	for i, pos := range points {
		if i > 0 && pos == points[i-1] {
			continue
		}
		// close everything from the first span that ends here upward,
		// then reopen the ones that continue past pos
		for idx, s := range stack {
			if s.End <= pos {
				var reopen []Span
				for k := len(stack) - 1; k >= idx; k-- {
					closeSpan(buf, stack[k])
				}
				for _, r := range stack[idx:] {
					if r.End > pos {
						reopen = append(reopen, r)
					}
				}
				stack = stack[:idx]
				for _, r := range reopen {
					openSpan(buf, r)
					stack = append(stack, r)
				}
				break
			}
		}
		for next < len(active) && active[next].Start == pos {
			openSpan(buf, active[next])
			stack = append(stack, active[next])
			next++
		}
		if pos < n {
			end := n
			for _, p := range points[i+1:] {
				if p > pos {
					end = p
					break
				}
			}
			segment := string(utf16.Decode(units[pos:end]))
			buf.WriteString(strings.ReplaceAll(html.EscapeString(segment), "\n", "<br />"))
		}
	}
	for k := len(stack) - 1; k >= 0; k-- {
		closeSpan(buf, stack[k])
	}
}

func openSpan(buf *bytes.Buffer, s Span) {
	switch s.Type {
	case Strong:
		buf.WriteString("<strong>")
	case Em:
		buf.WriteString("<em>")
	case Hyperlink:
		href := ""
		target := ""
		if s.Data != nil {
			href = SafeURL(s.Data.URL)
			target = s.Data.Target
		}
		buf.WriteString(`<a href="` + href + `"`)
		if target != "" {
			buf.WriteString(` target="` + html.EscapeString(target) + `" rel="noopener noreferrer"`)
		}
		buf.WriteString(">")
	case Label:
		class := ""
		if s.Data != nil {
			class = s.Data.Label
		}
		buf.WriteString(`<span class="` + html.EscapeString(class) + `">`)
	default:
		buf.WriteString("<span>")
	}
}

func closeSpan(buf *bytes.Buffer, s Span) {
	switch s.Type {
	case Strong:
		buf.WriteString("</strong>")
	case Em:
		buf.WriteString("</em>")
	case Hyperlink:
		buf.WriteString("</a>")
	default:
		buf.WriteString("</span>")
	}
}

// SafeURL validates and escapes a URL for use in HTML attributes.
// Unsupported schemes yield "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
