package testutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses a rendered page for DOM assertions.
func ParseHTML(t testing.TB, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// InputValue returns the value attribute of the first input named name.
func InputValue(doc *goquery.Document, name string) string {
	v, _ := doc.Find(`[name="` + name + `"]`).First().Attr("value")
	return v
}

// HasAutofocus reports whether the field named name carries autofocus.
func HasAutofocus(doc *goquery.Document, name string) bool {
	_, ok := doc.Find(`[name="` + name + `"]`).First().Attr("autofocus")
	return ok
}
