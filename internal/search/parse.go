package search

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// parseResultsPage extracts results and related searches from a DuckDuckGo
// HTML results page. The page structure: each hit is a node with class
// "result" containing an anchor "result__a" (title + href), a
// "result__snippet" node, and optionally a "result__icon__img" image.
// Related searches live under "result--related" anchors.
func parseResultsPage(page []byte) ([]Result, []string, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, nil, err
	}

	var results []Result
	var related []string

	for _, node := range findAll(root, byClass("result")) {
		if hasClass(node, "result--related") {
			for _, a := range findAll(node, byTag("a")) {
				if text := nodeText(a); text != "" {
					related = append(related, text)
				}
			}
			continue
		}

		anchor := findFirst(node, byClass("result__a"))
		if anchor == nil {
			continue
		}
		title := nodeText(anchor)
		href := attr(anchor, "href")
		if title == "" || href == "" {
			continue
		}

		r := Result{
			ID:      len(results),
			Title:   title,
			URL:     href,
			Snippet: nodeText(findFirst(node, byClass("result__snippet"))),
			Source:  hostOf(href),
		}
		if icon := findFirst(node, byClass("result__icon__img")); icon != nil {
			r.Image = fixProtocolRelative(attr(icon, "src"))
		}
		results = append(results, r)
	}

	return results, related, nil
}

// hostOf returns the hostname of a URL with a leading "www." stripped.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// fixProtocolRelative turns //host/path icon URLs into https ones.
func fixProtocolRelative(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

type matchFunc func(*html.Node) bool

func byTag(tag string) matchFunc {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func byClass(class string) matchFunc {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, class)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAll returns every node in the tree matching fn, in document order.
// Matching nodes are not descended into, so nested "result" blocks do not
// double-count.
func findAll(n *html.Node, fn matchFunc) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if fn(node) {
			out = append(out, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, fn matchFunc) *html.Node {
	if n == nil {
		return nil
	}
	if fn(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, fn); found != nil {
			return found
		}
	}
	return nil
}

// nodeText concatenates the text content beneath a node, whitespace-trimmed.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
