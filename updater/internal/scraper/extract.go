package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// titleSuffix closes the heading of every puzzle page: "--- Day 5: Title ---".
const titleSuffix = " ---"

// extractTitle returns the puzzle title from a day page. Headings are scanned
// in document order and the first whose text holds both markers wins.
func extractTitle(body string, day int) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	prefix := fmt.Sprintf("--- Day %d: ", day)
	var title string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.H2 {
			return true
		}
		t, ok := between(textOf(n), prefix, titleSuffix)
		if !ok {
			return true
		}
		title = strings.ToValidUTF8(t, "\uFFFD")
		return false
	})
	return title, title != ""
}

// extractMaxDay returns the highest N among links to /<year>/day/<N> on a
// year index page.
func extractMaxDay(body string, year int) (int, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return 0, false
	}

	prefix := fmt.Sprintf("/%d/day/", year)
	highest := 0
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		href := attr(n, "href")
		if u, err := url.Parse(href); err == nil {
			href = u.Path
		}
		rest, ok := strings.CutPrefix(href, prefix)
		if !ok || !isDigits(rest) {
			return true
		}
		if d, err := strconv.Atoi(rest); err == nil && d > highest {
			highest = d
		}
		return true
	})
	return highest, highest > 0
}

// between returns the trimmed text after prefix and before the next suffix.
func between(text, prefix, suffix string) (string, bool) {
	i := strings.Index(text, prefix)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(prefix):]
	j := strings.Index(rest, suffix)
	if j < 0 {
		return "", false
	}
	t := strings.TrimSpace(rest[:j])
	return t, t != ""
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

// textOf concatenates the text nodes under n.
func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
