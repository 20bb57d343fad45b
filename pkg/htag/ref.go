package htag

import (
	"sort"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

// ElementRef wraps a bound element with helpers for common updates
type ElementRef struct {
	node        *html.Node
	placeholder *html.Node
	removed     bool
	tpl         *Template
}

func newElementRef(n *html.Node, tpl *Template) *ElementRef {
	return &ElementRef{
		node:        n,
		placeholder: dom.NewText(""),
		tpl:         tpl,
	}
}

// Node returns the wrapped node
func (r *ElementRef) Node() *html.Node {
	return r.node
}

// Template returns the template the node was bound in
func (r *ElementRef) Template() *Template {
	return r.tpl
}

// ClassMap adds the classes mapped to true and removes those mapped to false
func (r *ElementRef) ClassMap(classes map[string]bool) {
	for _, name := range sortedNames(classes) {
		if classes[name] {
			dom.AddClass(r.node, name)
		} else {
			dom.RemoveClass(r.node, name)
		}
	}
}

// AttrMap sets attributes by name. false removes the attribute and true sets
// it to the empty string.
func (r *ElementRef) AttrMap(attrs map[string]any) {
	for _, name := range sortedNames(attrs) {
		switch v := attrs[name].(type) {
		case bool:
			if v {
				dom.SetAttr(r.node, name, "")
			} else {
				dom.RemoveAttr(r.node, name)
			}
		default:
			dom.SetAttr(r.node, name, dom.Stringify(v))
		}
	}
}

// DataMap sets dataset entries by camelCase key with the AttrMap rules
func (r *ElementRef) DataMap(data map[string]any) {
	for _, key := range sortedNames(data) {
		switch v := data[key].(type) {
		case bool:
			if v {
				dom.SetData(r.node, key, "")
			} else {
				dom.DeleteData(r.node, key)
			}
		default:
			dom.SetData(r.node, key, dom.Stringify(v))
		}
	}
}

// Text replaces the text content when it differs
func (r *ElementRef) Text(text string) {
	if dom.TextContent(r.node) != text {
		dom.SetTextContent(r.node, text)
	}
}

// Style merges camelCase style properties into the inline style
func (r *ElementRef) Style(style map[string]string) error {
	return dom.ApplyAttrs(r.node, map[string]any{"style": style})
}

// Attrs applies an attribute map like an interpolated Attrs expression
func (r *ElementRef) Attrs(attrs Attrs) error {
	return dom.ApplyAttrs(r.node, attrs)
}

// Update applies an attribute map with update semantics (see dom.UpdateAttrs)
func (r *ElementRef) Update(attrs Attrs) error {
	return dom.UpdateAttrs(r.node, attrs)
}

// Show clears the inline display property and reinserts a removed node
func (r *ElementRef) Show() {
	dom.RemoveStyle(r.node, "display")
	r.restore()
}

// Hide sets display: none and reinserts a removed node
func (r *ElementRef) Hide() {
	dom.SetStyle(r.node, "display", "none")
	r.restore()
}

// Remove swaps the node for an empty text placeholder so Show or Hide can
// put it back in place
func (r *ElementRef) Remove() {
	if r.removed || r.node.Parent == nil {
		return
	}
	dom.ReplaceWith(r.node, r.placeholder)
	r.removed = true
}

// Removed reports whether the node is currently swapped out
func (r *ElementRef) Removed() bool {
	return r.removed
}

func (r *ElementRef) restore() {
	if !r.removed {
		return
	}
	dom.ReplaceWith(r.placeholder, r.node)
	r.removed = false
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
