package htag

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

// DirectiveType selects the marker a directive binds through
type DirectiveType uint8

const (
	// AttrDirective decorates the element it is interpolated into
	AttrDirective DirectiveType = iota + 1
	// NodeDirective occupies a placeholder node the callback replaces
	NodeDirective
)

// String returns a human-readable name for the directive type
func (t DirectiveType) String() string {
	switch t {
	case AttrDirective:
		return "attr"
	case NodeDirective:
		return "node"
	default:
		return "unknown"
	}
}

// Instance is one use of a directive inside a template
type Instance struct {
	// Node is the decorated element (AttrDirective) or the placeholder
	// (NodeDirective)
	Node  *html.Node
	Index int
	Args  []any
}

// DirectiveFunc receives every instance of one directive in a template, in
// source order. It runs once per template after all markers are resolved.
type DirectiveFunc func(t *Template, instances []Instance) (any, error)

// Definition describes a directive
type Definition struct {
	Type DirectiveType
	// Key, when set, names the template member that receives the value
	// returned by Callback. Keys are unique per registry.
	Key      string
	Callback DirectiveFunc
}

// definition is the identity of a directive type; instances are grouped by
// pointer, never by structural equality
type definition struct {
	Definition
}

// Directive is a directive value ready to be interpolated
type Directive struct {
	def  *definition
	args []any
}

// Type returns the binding type of the directive
func (d Directive) Type() DirectiveType {
	if d.def == nil {
		return 0
	}
	return d.def.Type
}

// Key returns the member key of the directive, if any
func (d Directive) Key() string {
	if d.def == nil {
		return ""
	}
	return d.def.Key
}

// Args returns the call-site arguments
func (d Directive) Args() []any {
	return d.args
}

// Factory produces directive values from call-site arguments
type Factory func(args ...any) Directive

// NewDirective registers def in DefaultRegistry and returns its factory
func NewDirective(def Definition) (Factory, error) {
	return NewDirectiveIn(DefaultRegistry, def)
}

// NewDirectiveIn registers def in reg and returns its factory
func NewDirectiveIn(reg *Registry, def Definition) (Factory, error) {
	if def.Callback == nil {
		return nil, errors.New("directive callback is required")
	}
	if def.Type != AttrDirective && def.Type != NodeDirective {
		return nil, fmt.Errorf("invalid directive type %d", def.Type)
	}
	if def.Key != "" {
		if reg == nil {
			reg = DefaultRegistry
		}
		if err := reg.Register(def.Key); err != nil {
			return nil, err
		}
	}
	d := &definition{Definition: def}
	return func(args ...any) Directive {
		return Directive{def: d, args: args}
	}, nil
}

// MustDirective is like NewDirective but panics on error. It is meant for
// package-level directive declarations.
func MustDirective(def Definition) Factory {
	f, err := NewDirective(def)
	if err != nil {
		panic(err)
	}
	return f
}

// instanceArg returns argument i of inst as a T
func instanceArg[T any](inst Instance, i int, directive string) (T, error) {
	var zero T
	if i >= len(inst.Args) {
		return zero, fmt.Errorf("%s directive at index %d: missing argument %d", directive, inst.Index, i)
	}
	v, ok := inst.Args[i].(T)
	if !ok {
		return zero, fmt.Errorf("%s directive at index %d: argument %d has type %T, want %T",
			directive, inst.Index, i, inst.Args[i], zero)
	}
	return v, nil
}
