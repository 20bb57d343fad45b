package htag

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

// AttrsUpdater applies attribute updates to named elements. Names without a
// matching element are ignored.
type AttrsUpdater func(updates map[string]Attrs) error

// NodeUpdater replaces the content of named nodes. A string becomes a text
// node; nodes and templates are used as is. Names without a matching node
// are ignored.
type NodeUpdater func(updates map[string]any) error

var (
	updatableDirective = MustDirective(Definition{
		Type: AttrDirective,
		Key:  updateKey,
		Callback: func(_ *Template, instances []Instance) (any, error) {
			nodes, err := nodeMap(instances, updateKey)
			if err != nil {
				return nil, err
			}
			return AttrsUpdater(func(updates map[string]Attrs) error {
				for _, name := range sortedNames(updates) {
					node, ok := nodes[name]
					if !ok {
						continue
					}
					if err := dom.UpdateAttrs(node, updates[name]); err != nil {
						return fmt.Errorf("update %q: %w", name, err)
					}
				}
				return nil
			}), nil
		},
	})

	updatableNodeDirective = MustDirective(Definition{
		Type: NodeDirective,
		Key:  updateNodeKey,
		Callback: func(_ *Template, instances []Instance) (any, error) {
			nodes, err := nodeMap(instances, updateNodeKey)
			if err != nil {
				return nil, err
			}
			return NodeUpdater(func(updates map[string]any) error {
				for _, name := range sortedNames(updates) {
					node, ok := nodes[name]
					if !ok {
						continue
					}
					next, err := replaceNode(node, updates[name])
					if err != nil {
						return fmt.Errorf("update node %q: %w", name, err)
					}
					nodes[name] = next
				}
				return nil
			}), nil
		},
	})
)

// Updatable registers the decorated element under name in the "update"
// member, an AttrsUpdater shared by all Updatable uses in the template
func Updatable(name string) Directive {
	return updatableDirective(name)
}

// UpdatableNode registers its placeholder under name in the "updateNode"
// member, a NodeUpdater shared by all UpdatableNode uses in the template
func UpdatableNode(name string) Directive {
	return updatableNodeDirective(name)
}

func nodeMap(instances []Instance, scope string) (map[string]*html.Node, error) {
	nodes := make(map[string]*html.Node, len(instances))
	for _, inst := range instances {
		name, err := instanceArg[string](inst, 0, scope)
		if err != nil {
			return nil, err
		}
		if _, ok := nodes[name]; ok {
			return nil, &DuplicateKeyError{Key: name, Scope: scope}
		}
		nodes[name] = inst.Node
	}
	return nodes, nil
}

// replaceNode swaps current for content unless both are text with equal
// data or content is current itself. It returns the node now in place.
func replaceNode(current *html.Node, content any) (*html.Node, error) {
	var next *html.Node
	switch x := content.(type) {
	case string:
		next = dom.NewText(x)
	case *html.Node:
		next = x
	case *Template:
		next = x.Node()
	default:
		return nil, fmt.Errorf("unsupported content type %T", content)
	}
	if next == nil || dom.IsFragment(next) {
		return nil, errSlotFragment
	}
	if next == current {
		return current, nil
	}
	if current.Type == html.TextNode && next.Type == html.TextNode && current.Data == next.Data {
		return current, nil
	}
	dom.ReplaceWith(current, next)
	return next, nil
}
