package htag

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

// Member keys claimed by the built-in keyed directives
const (
	refsKey       = "refs"
	updateKey     = "update"
	updateNodeKey = "updateNode"
)

var (
	refDirective = MustDirective(Definition{
		Type: AttrDirective,
		Callback: func(t *Template, instances []Instance) (any, error) {
			for _, inst := range instances {
				name, err := instanceArg[string](inst, 0, "ref")
				if err != nil {
					return nil, err
				}
				if err := t.Define(name, newElementRef(inst.Node, t)); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	})

	textDirective = MustDirective(Definition{
		Type: NodeDirective,
		Callback: func(t *Template, instances []Instance) (any, error) {
			for _, inst := range instances {
				name, err := instanceArg[string](inst, 0, "text")
				if err != nil {
					return nil, err
				}
				content := ""
				if len(inst.Args) > 1 {
					content = dom.Stringify(inst.Args[1])
				}
				node := dom.NewText(content)
				dom.ReplaceWith(inst.Node, node)
				if err := t.Define(name, &TextBinding{node: node}); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	})

	fnDirective = MustDirective(Definition{
		Type: AttrDirective,
		Callback: func(t *Template, instances []Instance) (any, error) {
			for _, inst := range instances {
				name, err := instanceArg[string](inst, 0, "fn")
				if err != nil {
					return nil, err
				}
				body, err := instanceArg[func(*ElementRef, ...any)](inst, 1, "fn")
				if err != nil {
					return nil, err
				}
				ref := newElementRef(inst.Node, t)
				bound := func(args ...any) { body(ref, args...) }
				if err := t.Define(name, bound); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	})

	refsDirective = MustDirective(Definition{
		Type: AttrDirective,
		Key:  refsKey,
		Callback: func(_ *Template, instances []Instance) (any, error) {
			refs := make(map[string]*html.Node)
			for _, inst := range instances {
				if len(inst.Args) == 0 {
					return nil, fmt.Errorf("refs directive at index %d: missing argument", inst.Index)
				}
				switch arg := inst.Args[0].(type) {
				case func(*html.Node):
					arg(inst.Node)
				case string:
					if _, ok := refs[arg]; ok {
						return nil, &DuplicateKeyError{Key: arg, Scope: refsKey}
					}
					refs[arg] = inst.Node
				default:
					return nil, fmt.Errorf("refs directive at index %d: want a name or func(*html.Node), got %T",
						inst.Index, arg)
				}
			}
			return refs, nil
		},
	})
)

// Ref exposes the decorated element as an *ElementRef member
//
//	h := htag.Must(htag.H(`<button `, htag.Ref("submit"), `>Go</button>`))
//	h.Ref("submit").Hide()
func Ref(name string) Directive {
	return refDirective(name)
}

// Text replaces its placeholder with a text node exposed as a *TextBinding
// member. An optional second argument is the initial text.
func Text(name string, initial ...any) Directive {
	args := []any{name}
	if len(initial) > 0 {
		args = append(args, initial[0])
	}
	return textDirective(args...)
}

// Fn exposes body as a function member bound to the decorated element
func Fn(name string, body func(ref *ElementRef, args ...any)) Directive {
	return fnDirective(name, body)
}

// Refs collects decorated elements into the "refs" member. A string argument
// names the element; a func(*html.Node) argument receives it instead.
func Refs(nameOrFunc any) Directive {
	return refsDirective(nameOrFunc)
}

// TextBinding is an updatable text node
type TextBinding struct {
	node *html.Node
}

// Node returns the text node
func (b *TextBinding) Node() *html.Node {
	return b.node
}

// Get returns the current text
func (b *TextBinding) Get() string {
	return b.node.Data
}

// Set replaces the text when the stringified value differs. Setting the
// current value performs no write.
func (b *TextBinding) Set(v any) {
	s := dom.Stringify(v)
	if b.node.Data != s {
		dom.SetTextContent(b.node, s)
	}
}
