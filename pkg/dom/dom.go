// Package dom implements the mutable document model used by htag on top of
// golang.org/x/net/html node trees.
//
// A fragment is a detached *html.Node of type html.DocumentNode that only
// serves as a container of top-level nodes. Inserting a fragment anywhere
// moves its children and leaves the fragment empty, like a browser
// DocumentFragment.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MutationKind describes which part of a node was written
type MutationKind uint8

const (
	// MutationChildList is an insertion or removal of a child node
	MutationChildList MutationKind = iota + 1
	// MutationAttributes is an attribute write or removal
	MutationAttributes
	// MutationCharacterData is a text node content write
	MutationCharacterData
)

// String returns a human-readable name for the mutation kind
func (k MutationKind) String() string {
	switch k {
	case MutationChildList:
		return "childList"
	case MutationAttributes:
		return "attributes"
	case MutationCharacterData:
		return "characterData"
	default:
		return "unknown"
	}
}

// Mutation is a single write performed through this package
type Mutation struct {
	Kind   MutationKind
	Target *html.Node
	Name   string // attribute name for MutationAttributes
}

// mutationHook observes every write, nil unless installed
var mutationHook func(Mutation)

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// SetMutationHook installs fn as the observer of every DOM write performed by
// this package. Passing nil removes the observer.
func SetMutationHook(fn func(Mutation)) {
	mutationHook = fn
}

func notify(kind MutationKind, target *html.Node, name string) {
	if mutationHook != nil {
		mutationHook(Mutation{Kind: kind, Target: target, Name: name})
	}
}

// NewFragment creates an empty detached fragment
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// IsFragment reports whether n is a fragment container
func IsFragment(n *html.Node) bool {
	return n != nil && n.Type == html.DocumentNode
}

// IsElement reports whether n is an element node
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// NewText creates a detached text node
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// NewElement creates a detached element with the given tag name
func NewElement(tag string) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Children returns a snapshot of the child nodes of n
func Children(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var kids []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, c)
	}
	return kids
}

// ElementChildren returns a snapshot of the element children of n
func ElementChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var kids []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			kids = append(kids, c)
		}
	}
	return kids
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func Remove(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	parent := n.Parent
	parent.RemoveChild(n)
	notify(MutationChildList, parent, "")
}

// Append appends child to parent, detaching it from its current parent first.
// Appending a fragment moves all of its children.
func Append(parent, child *html.Node) {
	InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref (append when ref is nil).
// Inserting a fragment moves all of its children.
func InsertBefore(parent, child, ref *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if IsFragment(child) {
		for _, c := range Children(child) {
			child.RemoveChild(c)
			parent.InsertBefore(c, ref)
		}
		notify(MutationChildList, parent, "")
		return
	}
	if child.Parent != nil {
		Remove(child)
	}
	parent.InsertBefore(child, ref)
	notify(MutationChildList, parent, "")
}

// ReplaceWith replaces old with repl in old's parent. A fragment replacement
// contributes all of its children. Detached nodes are left untouched.
func ReplaceWith(old, repl *html.Node) {
	if old == nil || repl == nil || old == repl || old.Parent == nil {
		return
	}
	parent := old.Parent
	if repl.Parent != nil && !IsFragment(repl) {
		Remove(repl)
	}
	InsertBefore(parent, repl, old)
	Remove(old)
}

// Clone returns a deep copy of n without parent or siblings
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c.AppendChild(Clone(k))
	}
	return c
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the descendants of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// TextContent returns the concatenated text of n and its descendants
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return n.Data
	}
	var b strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// SetTextContent writes text into n. Text nodes get their data replaced;
// elements and fragments get all children replaced by one text node.
func SetTextContent(n *html.Node, text string) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.TextNode, html.CommentNode:
		n.Data = text
		notify(MutationCharacterData, n, "")
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(NewText(text))
	}
	notify(MutationChildList, n, "")
}

// Contains reports whether n is root or a descendant of root
func Contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
