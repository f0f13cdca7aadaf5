package prismic

import (
	"strconv"
	"strings"
)

// Predicate is a single query filter, e.g. at(document.type,"posts").
type Predicate struct {
	path  string
	value string
}

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate{path: path, value: value}
}

// String renders the predicate in the repository query syntax.
func (p Predicate) String() string {
	return "[at(" + p.path + "," + strconv.Quote(p.value) + ")]"
}

// encodeQuery builds the q parameter from a list of predicates.
func encodeQuery(preds []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range preds {
		b.WriteString(p.String())
	}
	b.WriteByte(']')
	return b.String()
}
