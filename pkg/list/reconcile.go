// Package list renders keyed collections into a container element and keeps
// them in sync across passes. A key that survives a pass keeps its DOM node;
// vanished keys are removed and new keys are appended.
package list

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

const (
	// DefaultKeyName is the attribute holding an entry's reconciliation key
	DefaultKeyName = "data-h-list-key"
	// DefaultIndexKeyName is the attribute holding an entry's last index
	DefaultIndexKeyName = "data-h-list-index"

	// templateProp links a list node back to the value its factory returned
	templateProp = "list.template"
)

// Rooted is a rendered value that owns a root node, such as a parsed template
type Rooted interface {
	Node() *html.Node
}

// Info describes the position of an entry in the current pass
type Info struct {
	Key   string // enumeration key
	Index int
}

// Params configures one reconciliation pass
type Params[T any] struct {
	// Container houses the whole list
	Container *html.Node
	// Items to render
	Items Collection[T]
	// Node creates the node for a new key. It returns an element *html.Node
	// or a Rooted value whose root is a single element.
	Node func(item T, info Info) (any, error)
	// Ref runs for every current entry, new or reused. It receives whatever
	// Node returned when the entry was created.
	Ref func(node any, item T, info Info)
	// Key computes the reconciliation key (default: the enumeration key)
	Key func(item T, info Info) string
	// KeyName is the key attribute name (default DefaultKeyName)
	KeyName string
	// IndexKeyName is the index attribute name (default DefaultIndexKeyName)
	IndexKeyName string
}

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Reconcile brings the keyed children of p.Container in line with p.Items.
// Nodes whose stored index drifted are detached and re-appended, which is
// enough to restore document order without computing a minimal move set.
func Reconcile[T any](p Params[T]) error {
	if p.Container == nil {
		return ErrNoContainer
	}
	if p.Node == nil {
		return fmt.Errorf("list: Node factory is required")
	}
	keyName := p.KeyName
	if keyName == "" {
		keyName = DefaultKeyName
	}
	indexKeyName := p.IndexKeyName
	if indexKeyName == "" {
		indexKeyName = DefaultIndexKeyName
	}

	snapshot := keyedChildren(p.Container, keyName)
	existing := make(map[string]*html.Node, len(snapshot))
	var extras []*html.Node // later children repeating a key
	for _, n := range snapshot {
		key, _ := dom.GetAttr(n, keyName)
		if _, dup := existing[key]; dup {
			extras = append(extras, n)
			continue
		}
		existing[key] = n
	}

	var entries []Entry[T]
	if p.Items != nil {
		entries = p.Items.Entries()
	}

	seen := make(map[string]struct{}, len(entries))
	created, moved := 0, 0
	for index, entry := range entries {
		info := Info{Key: entry.Key, Index: index}
		key := entry.Key
		if p.Key != nil {
			key = p.Key(entry.Item, info)
		}
		if _, dup := seen[key]; dup {
			return &DuplicateKeyError{Key: key, Index: index}
		}
		seen[key] = struct{}{}

		node, ok := existing[key]
		if ok {
			delete(existing, key)
		} else {
			v, err := p.Node(entry.Item, info)
			if err != nil {
				return fmt.Errorf("list item %q: %w", key, err)
			}
			node, err = rootElement(v, key, index)
			if err != nil {
				return err
			}
			if r, isRooted := v.(Rooted); isRooted {
				dom.SetProp(node, templateProp, r)
			}
			created++
		}

		position := strconv.Itoa(index)
		if stored, _ := dom.GetAttr(node, indexKeyName); stored != position {
			dom.Remove(node)
			dom.SetAttr(node, keyName, key)
			dom.SetAttr(node, indexKeyName, position)
			dom.Append(p.Container, node)
			moved++
		}

		if p.Ref != nil {
			var ref any = node
			if v, ok := dom.Prop(node, templateProp); ok {
				ref = v
			}
			p.Ref(ref, entry.Item, info)
		}
	}

	removed := 0
	for _, n := range snapshot {
		key, _ := dom.GetAttr(n, keyName)
		if existing[key] != n {
			continue
		}
		destroy(n)
		removed++
	}
	for _, n := range extras {
		destroy(n)
		removed++
	}

	if debugLog != nil {
		debugLog("[List] Reconciled", len(entries), "entries: created", created,
			"moved", moved, "removed", removed)
	}
	return nil
}

// destroy detaches a leftover node and drops the properties stored on its
// subtree
func destroy(n *html.Node) {
	dom.Remove(n)
	dom.ReleaseProps(n)
}

// keyedChildren returns the immediate element children carrying keyName
func keyedChildren(container *html.Node, keyName string) []*html.Node {
	var nodes []*html.Node
	for _, c := range dom.ElementChildren(container) {
		if dom.HasAttr(c, keyName) {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

func rootElement(v any, key string, index int) (*html.Node, error) {
	var n *html.Node
	switch x := v.(type) {
	case *html.Node:
		n = x
	case Rooted:
		n = x.Node()
	default:
		return nil, &InvalidListItemError{Key: key, Index: index, Got: fmt.Sprintf("%T", v)}
	}
	if !dom.IsElement(n) {
		return nil, &InvalidListItemError{Key: key, Index: index, Got: describe(n)}
	}
	return n, nil
}

func describe(n *html.Node) string {
	if n == nil {
		return "nil"
	}
	switch n.Type {
	case html.TextNode:
		return "a text node"
	case html.DocumentNode:
		return fmt.Sprintf("a fragment with %d nodes", len(dom.Children(n)))
	case html.CommentNode:
		return "a comment"
	}
	return "a non-element node"
}
