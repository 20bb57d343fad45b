package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup in a <template> context and returns the result
// as a detached fragment. Nothing is attached to a document, so parsing has
// no side effects; table parts such as <tr> are accepted at the top level.
func ParseFragment(markup string) (*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "template",
		DataAtom: atom.Template,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	frag := NewFragment()
	for _, n := range nodes {
		frag.AppendChild(n)
	}
	return frag, nil
}

// ParseFragmentIn parses markup in the context of element n
func ParseFragmentIn(n *html.Node, markup string) ([]*html.Node, error) {
	if !IsElement(n) {
		frag, err := ParseFragment(markup)
		if err != nil {
			return nil, err
		}
		return Children(frag), nil
	}
	context := &html.Node{
		Type:      html.ElementNode,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment in <%s>: %w", n.Data, err)
	}
	return nodes, nil
}

// SetInnerHTML replaces the children of n with the parsed markup
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := ParseFragmentIn(n, markup)
	if err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		n.AppendChild(c)
	}
	notify(MutationChildList, n, "")
	return nil
}
