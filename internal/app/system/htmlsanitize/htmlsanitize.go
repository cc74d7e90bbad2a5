// Package htmlsanitize cleans the HTML that section editors send to the backend
// and that pages render back as previews.
package htmlsanitize

import (
	"html/template"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richOnce sync.Once
	rich     *bluemonday.Policy

	embedOnce sync.Once
	embed     *bluemonday.Policy
)

// httpsURL restricts embedded frames to https sources.
var httpsURL = regexp.MustCompile(`^https://[^\s"'<>]+$`)

func richPolicy() *bluemonday.Policy {
	richOnce.Do(func() {
		rich = bluemonday.UGCPolicy()
		rich.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		rich.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		rich.AllowElements("u", "s", "sub", "sup", "mark")
		rich.AllowAttrs("class").OnElements("p", "span", "table", "td", "th")
		rich.AllowAttrs("style").OnElements("p", "span")
		rich.AllowStyles("text-align").Matching(regexp.MustCompile(`^(left|right|center|justify)$`)).Globally()
	})
	return rich
}

func embedPolicy() *bluemonday.Policy {
	embedOnce.Do(func() {
		embed = bluemonday.NewPolicy()
		embed.AllowElements("iframe")
		embed.AllowAttrs("src").Matching(httpsURL).OnElements("iframe")
		embed.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9]{1,4}%?$`)).OnElements("iframe")
		embed.AllowAttrs("title", "loading", "referrerpolicy", "allowfullscreen", "frameborder", "style").OnElements("iframe")
	})
	return embed
}

// RichText strips unsafe markup from editor HTML (descriptions, answers)
// while keeping formatting, links, lists and tables.
func RichText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	return richPolicy().Sanitize(html)
}

// Embed keeps only https iframes from a map embed snippet. Everything else,
// scripts included, is dropped.
func Embed(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	return strings.TrimSpace(embedPolicy().Sanitize(html))
}

// IsPlainText reports whether content has no markup at all.
func IsPlainText(content string) bool {
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// Display returns content ready to render. Plain text is escaped with its
// line breaks kept; HTML goes through RichText.
func Display(content string) template.HTML {
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		escaped := template.HTMLEscapeString(content)
		return template.HTML("<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>")
	}
	return template.HTML(RichText(content))
}

// DisplayEmbed returns a sanitized embed snippet for preview rendering.
func DisplayEmbed(content string) template.HTML {
	return template.HTML(Embed(content))
}
