// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

// richText allows what the report editor produces: basic formatting, lists,
// links, tables and code blocks.
func richText() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark", "sub", "sup")
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th")
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		policy = p
	})
	return policy
}

// Sanitize strips anything unsafe from HTML input.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richText().Sanitize(s)
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// Notes cleans a free-text field. Plain text is only trimmed so that
// characters like & and ' survive untouched; markup goes through Sanitize.
func Notes(s string) string {
	s = strings.TrimSpace(s)
	if IsPlainText(s) {
		return s
	}
	return Sanitize(s)
}
