package htag

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

// MergeOptions selects what Merge copies from the merged template
type MergeOptions struct {
	// Callbacks adds the merged template's callbacks to this template
	Callbacks bool
	// Directives copies the merged template's members to this template
	Directives bool
}

var errSlotFragment = errors.New("slot content must be a single node")

var (
	mergeDirective = MustDirective(Definition{
		Type: NodeDirective,
		Callback: func(t *Template, instances []Instance) (any, error) {
			for _, inst := range instances {
				other, err := instanceArg[*Template](inst, 0, "merge")
				if err != nil {
					return nil, err
				}
				if other == nil {
					return nil, fmt.Errorf("merge directive at index %d: nil template", inst.Index)
				}
				opts, err := instanceArg[MergeOptions](inst, 1, "merge")
				if err != nil {
					return nil, err
				}
				dom.ReplaceWith(inst.Node, other.Node())
				if opts.Directives {
					for _, name := range other.names {
						if err := t.Define(name, other.members[name]); err != nil {
							return nil, err
						}
					}
				}
				if opts.Callbacks {
					t.callbacks.Merge(other.callbacks)
				}
			}
			return nil, nil
		},
	})

	nestDirective = MustDirective(Definition{
		Type: NodeDirective,
		Callback: func(t *Template, instances []Instance) (any, error) {
			for _, inst := range instances {
				name, err := instanceArg[string](inst, 0, "nest")
				if err != nil {
					return nil, err
				}
				child, err := instanceArg[*Template](inst, 1, "nest")
				if err != nil {
					return nil, err
				}
				if child == nil {
					return nil, fmt.Errorf("nest directive at index %d: nil template", inst.Index)
				}
				dom.ReplaceWith(inst.Node, child.Node())
				if err := t.Define(name, child); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	})

	slotDirective = MustDirective(Definition{
		Type: NodeDirective,
		Callback: func(t *Template, instances []Instance) (any, error) {
			for _, inst := range instances {
				name, err := instanceArg[string](inst, 0, "slot")
				if err != nil {
					return nil, err
				}
				if err := t.Define(name, &SlotBinding{current: inst.Node}); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	})
)

// Merge replaces its placeholder with the root of tpl. Without options the
// members of tpl are copied and its callbacks are not.
func Merge(tpl *Template, opts ...MergeOptions) Directive {
	o := MergeOptions{Directives: true}
	if len(opts) > 0 {
		o = opts[0]
	}
	return mergeDirective(tpl, o)
}

// MergeAll merges tpl together with its members and callbacks
func MergeAll(tpl *Template) Directive {
	return Merge(tpl, MergeOptions{Callbacks: true, Directives: true})
}

// Nest replaces its placeholder with the root of child and exposes child
// itself as a member, so its own members and callbacks stay reachable
func Nest(name string, child *Template) Directive {
	return nestDirective(name, child)
}

// Slot exposes its placeholder as a *SlotBinding member whose content can be
// swapped later
func Slot(name string) Directive {
	return slotDirective(name)
}

// SlotBinding is a position in the tree whose node can be replaced
type SlotBinding struct {
	current *html.Node
}

// Get returns the node currently in the slot
func (b *SlotBinding) Get() *html.Node {
	return b.current
}

// Set puts v in the slot. Nodes and templates are used as is and anything
// else becomes a text node. Setting the same node, or a string equal to the
// current text, performs no write.
func (b *SlotBinding) Set(v any) error {
	if s, ok := v.(string); ok && dom.TextContent(b.current) == s {
		return nil
	}

	var next *html.Node
	switch x := v.(type) {
	case *html.Node:
		next = x
	case *Template:
		next = x.Node()
	default:
		next = dom.NewText(dom.Stringify(v))
	}
	if next == nil || dom.IsFragment(next) {
		return errSlotFragment
	}
	if next == b.current {
		return nil
	}
	dom.ReplaceWith(b.current, next)
	b.current = next
	return nil
}
