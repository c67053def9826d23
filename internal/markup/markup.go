// Package markup is the HTML-document tree accessor consumed by the
// dataset builder. It wraps the parsed node tree behind a small
// find/attr/text API so the recursive DOM walking stays behind this
// collaborator boundary.
package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Node is one element of the parsed document tree.
type Node = html.Node

// Parse reads an HTML document into a node tree. The underlying parser
// is tolerant: scraped campus pages are rarely well-formed.
func Parse(r io.Reader) (*Node, error) {
	return html.Parse(r)
}

// FindAll returns every element node with the given tag, in document
// order.
func FindAll(n *Node, tag string) []*Node {
	var out []*Node
	walk(n, func(node *Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
	})
	return out
}

// FindByClass returns every element node with the given tag whose
// class attribute contains the given token.
func FindByClass(n *Node, tag, class string) []*Node {
	var out []*Node
	walk(n, func(node *Node) {
		if node.Type == html.ElementNode && node.Data == tag && hasClass(node, class) {
			out = append(out, node)
		}
	})
	return out
}

// First returns the first element matching tag and class token, or nil.
func First(n *Node, tag, class string) *Node {
	nodes := FindByClass(n, tag, class)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Attr returns the value of the named attribute, or "".
func Attr(n *Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// Text returns the concatenated text content of the subtree, trimmed
// and NFC-normalized. Scraped pages mix non-breaking spaces and
// decomposed accents into otherwise plain cell text.
func Text(n *Node) string {
	var b strings.Builder
	walk(n, func(node *Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
	})
	s := norm.NFC.String(b.String())
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}

func walk(n *Node, visit func(*Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// hasClass checks for a whole class token, not a substring: the campus
// tables rely on tokens like "views-field-field-room-number" that are
// prefixes of one another. An empty token matches any element.
func hasClass(n *Node, class string) bool {
	if class == "" {
		return true
	}
	for _, token := range strings.Fields(Attr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}
