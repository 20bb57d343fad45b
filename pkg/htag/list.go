package htag

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/list"
)

// ListOptions configures a List directive. The fields mirror list.Params
// minus the container, which is the decorated element.
type ListOptions[T any] struct {
	Name         string
	Items        list.Collection[T]
	Node         func(item T, info list.Info) (any, error)
	Ref          func(node any, item T, info list.Info)
	Key          func(item T, info list.Info) string
	KeyName      string
	IndexKeyName string
}

// listBinder hides the item type from the shared directive definition
type listBinder interface {
	bind(t *Template, container *html.Node) error
}

var listDirective = MustDirective(Definition{
	Type: AttrDirective,
	Callback: func(t *Template, instances []Instance) (any, error) {
		for _, inst := range instances {
			b, err := instanceArg[listBinder](inst, 0, "list")
			if err != nil {
				return nil, err
			}
			if err := b.bind(t, inst.Node); err != nil {
				return nil, err
			}
		}
		return nil, nil
	},
})

// List renders opts.Items into the decorated element and exposes a
// *ListBinding[T] member named opts.Name; read it back with ListOf.
//
//	tpl := htag.Must(htag.H(`<ul `, htag.List(htag.ListOptions[Task]{
//		Name:  "tasks",
//		Items: list.Slice[Task](tasks),
//		Node:  renderTask,
//	}), `></ul>`))
//	htag.ListOf[Task](tpl, "tasks").Set(list.Slice[Task](next))
func List[T any](opts ListOptions[T]) Directive {
	return listDirective(opts)
}

func (o ListOptions[T]) bind(t *Template, container *html.Node) error {
	b := &ListBinding[T]{
		params: list.Params[T]{
			Container:    container,
			Items:        o.Items,
			Node:         o.Node,
			Ref:          o.Ref,
			Key:          o.Key,
			KeyName:      o.KeyName,
			IndexKeyName: o.IndexKeyName,
		},
	}
	if err := t.Define(o.Name, b); err != nil {
		return err
	}
	if err := b.Refresh(); err != nil {
		return fmt.Errorf("list %q: %w", o.Name, err)
	}
	return nil
}

// ListBinding is a keyed list rendered into a container element
type ListBinding[T any] struct {
	params list.Params[T]
}

// Items returns the last assigned collection
func (b *ListBinding[T]) Items() list.Collection[T] {
	return b.params.Items
}

// Container returns the element holding the list
func (b *ListBinding[T]) Container() *html.Node {
	return b.params.Container
}

// Set assigns a new collection and reconciles the container against it
func (b *ListBinding[T]) Set(items list.Collection[T]) error {
	b.params.Items = items
	return b.Refresh()
}

// Refresh reconciles the container against the current collection, for
// collections mutated in place
func (b *ListBinding[T]) Refresh() error {
	return list.Reconcile(b.params)
}
