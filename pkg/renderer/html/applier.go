// Package html serializes node trees to HTML markup deterministically:
// attributes keep their document order and fragments render their children.
package html

import (
	"fmt"
	"html"
	"io"
	"strings"

	nethtml "golang.org/x/net/html"
)

// voidElements are HTML elements that cannot have children
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// booleanAttributes are HTML attributes that are boolean flags
var booleanAttributes = map[string]bool{
	"checked":   true,
	"disabled":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
	"defer":     true,
	"async":     true,
	"multiple":  true,
	"autofocus": true,
	"hidden":    true,
}

// Options tunes the output
type Options struct {
	// SkipAttr hides attributes for which it returns true
	SkipAttr func(key string) bool
}

// Renderer writes node trees as HTML
type Renderer struct {
	w    io.Writer
	opts Options
	err  error
}

// NewRenderer creates a new renderer writing to w
func NewRenderer(w io.Writer, opts ...Options) *Renderer {
	r := &Renderer{w: w}
	if len(opts) > 0 {
		r.opts = opts[0]
	}
	return r
}

// Render writes n and its descendants. A fragment renders its children.
func (r *Renderer) Render(n *nethtml.Node) error {
	if n == nil {
		return nil
	}
	r.renderNode(n)
	return r.err
}

// write helper that tracks errors
func (r *Renderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, s)
}

// renderNode renders a single node
func (r *Renderer) renderNode(n *nethtml.Node) {
	if n == nil || r.err != nil {
		return
	}

	switch n.Type {
	case nethtml.TextNode:
		// HTML escape text content to prevent XSS
		r.write(html.EscapeString(n.Data))

	case nethtml.ElementNode:
		r.renderElement(n)

	case nethtml.DocumentNode:
		// Fragments just render their children
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			r.renderNode(c)
		}

	case nethtml.CommentNode:
		r.write("<!--")
		r.write(n.Data)
		r.write("-->")

	case nethtml.DoctypeNode:
		r.write("<!DOCTYPE ")
		r.write(n.Data)
		r.write(">")
	}
}

// renderElement renders an element node
func (r *Renderer) renderElement(n *nethtml.Node) {
	tag := n.Data

	// Start tag
	r.write("<")
	r.write(tag)

	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		if r.opts.SkipAttr != nil && r.opts.SkipAttr(key) {
			continue
		}

		// Handle boolean attributes
		if booleanAttributes[key] && (a.Val == "" || strings.EqualFold(a.Val, key)) {
			r.write(" ")
			r.write(key)
			continue
		}

		value := a.Val

		// Security: prevent javascript: URLs in href/src attributes
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "javascript:") {
			value = "#"
		}

		r.write(" ")
		r.write(key)
		r.write(`="`)
		r.write(html.EscapeString(value))
		r.write(`"`)
	}

	// Close opening tag
	r.write(">")

	// Void elements don't have closing tags or children
	if voidElements[tag] {
		return
	}

	// Script and style content is not escaped
	isRawTextElement := tag == "script" || tag == "style"
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isRawTextElement && c.Type == nethtml.TextNode {
			r.write(c.Data)
			continue
		}
		r.renderNode(c)
	}

	// Closing tag
	r.write("</")
	r.write(tag)
	r.write(">")
}

// RenderToString is a convenience function to render a node to a string
func RenderToString(n *nethtml.Node, opts ...Options) (string, error) {
	var buf strings.Builder
	if err := NewRenderer(&buf, opts...).Render(n); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}

// MustRenderToString is like RenderToString but panics on error
func MustRenderToString(n *nethtml.Node, opts ...Options) string {
	s, err := RenderToString(n, opts...)
	if err != nil {
		panic(err)
	}
	return s
}
