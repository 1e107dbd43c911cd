package scan

import (
	"strings"

	"golang.org/x/net/html"
)

// extractTitle returns the text of the first <title> element, trimmed and
// entity-decoded, or "" when the document has none. The tokenizer stops at
// the first match so cost stays bounded on large pages.
func extractTitle(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return strings.TrimSpace(z.Token().Data)
			}
			return ""
		}
	}
}

// metaMentions reports whether any social meta tag (og:* / twitter:*)
// references the username. Scanning stops once <body> opens; social meta
// tags live in the head.
func metaMentions(body, username string) bool {
	needle := strings.ToLower(username)
	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "body":
				return false
			case "meta":
				if !hasAttr {
					continue
				}
				var key, content string
				for {
					k, v, more := z.TagAttr()
					switch string(k) {
					case "property", "name":
						key = strings.ToLower(string(v))
					case "content":
						content = strings.ToLower(string(v))
					}
					if !more {
						break
					}
				}
				social := strings.HasPrefix(key, "og:") || strings.HasPrefix(key, "twitter:")
				if social && content != "" && strings.Contains(content, needle) {
					return true
				}
			}
		}
	}
}
