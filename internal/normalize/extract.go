package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors is the cascade tried when extracting article text from
// raw HTML, most specific first.
var contentSelectors = []string{
	"article p",
	".article-body p",
	".article-content p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

var junkIndicators = []string{
	"cookie", "gdpr", "subscribe", "newsletter", "advertisement",
	"sign up", "log in", "read more", "click here", "follow us",
	"share this", "all rights reserved",
}

// ExtractText strips boilerplate from article content. Plain text passes
// through with whitespace collapsed; HTML is reduced to its paragraph text.
func ExtractText(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if !strings.Contains(content, "<") {
		return collapseWhitespace(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return collapseWhitespace(stripTags(content))
	}

	var paragraphs []string
	for _, selector := range contentSelectors {
		var found []string
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 && !isJunkLine(text) {
				found = append(found, text)
			}
		})
		if len(found) > 0 {
			paragraphs = found
			break
		}
	}

	if len(paragraphs) == 0 {
		// No paragraph structure at all; fall back to the document text.
		return collapseWhitespace(doc.Text())
	}

	return strings.Join(paragraphs, "\n\n")
}

func isJunkLine(line string) bool {
	lower := strings.ToLower(line)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripTags(content string) string {
	inTag := false
	var b strings.Builder
	for _, char := range content {
		switch {
		case char == '<':
			inTag = true
		case char == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(char)
		}
	}
	return b.String()
}
