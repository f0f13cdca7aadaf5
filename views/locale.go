package views

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

var (
	supportedLocales = []language.Tag{language.BrazilianPortuguese, language.English}
	localeMatcher    = language.NewMatcher(supportedLocales)

	// abbreviated month names per supported locale, same order
	monthNames = [][12]string{
		{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
		{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	}
)

// MatchLocale picks the supported locale closest to the preferred ones.
// Unrecognized input falls back to Brazilian Portuguese.
func MatchLocale(preferred ...string) language.Tag {
	_, idx := language.MatchStrings(localeMatcher, preferred...)
	return supportedLocales[idx]
}

// FormatDate renders t as "dd MMM yyyy" in loc, e.g. "05 mar 2022".
// A nil time renders as "".
func FormatDate(t *time.Time, loc *time.Location, locale language.Tag) string {
	if t == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	_, idx, _ := localeMatcher.Match(locale)
	lt := t.In(loc)
	return fmt.Sprintf("%02d %s %04d", lt.Day(), monthNames[idx][lt.Month()-1], lt.Year())
}

type labelKey int

const (
	labelLoadMore labelKey = iota
	labelLoading
	labelNotFound
	labelServerError
	labelBackHome
)

// per supported locale, same order
var labels = [][]string{
	{"Carregar mais posts", "Carregando...", "Post não encontrado", "Algo deu errado. Tente novamente em instantes.", "Voltar para o início"},
	{"Load more posts", "Loading...", "Post not found", "Something went wrong. Please try again shortly.", "Back to home"},
}

func label(locale language.Tag, k labelKey) string {
	_, idx, _ := localeMatcher.Match(locale)
	return labels[idx][k]
}
