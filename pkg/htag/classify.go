package htag

import (
	"fmt"
	"reflect"
	"strconv"

	"golang.org/x/net/html"
)

// ExprKind is the kind of an interpolated value
type ExprKind uint8

const (
	// KindPrimitive is a string, boolean or number inlined into the markup
	KindPrimitive ExprKind = iota + 1
	// KindCallback is a deferred callback bound to an element
	KindCallback
	// KindNode is a node substituted for a placeholder
	KindNode
	// KindTemplate is a parsed template whose root is substituted
	KindTemplate
	// KindDirective is a directive value
	KindDirective
	// KindAttrs is an attribute map applied to an element
	KindAttrs
)

// String returns a human-readable name for the kind
func (k ExprKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindCallback:
		return "callback"
	case KindNode:
		return "node"
	case KindTemplate:
		return "template"
	case KindDirective:
		return "directive"
	case KindAttrs:
		return "attrs"
	default:
		return "invalid"
	}
}

// Callback is a deferred callback. Returning false removes it from the
// template's callback set after it ran.
type Callback func(ref *ElementRef) bool

// Attrs is an attribute and property map. See dom.ApplyAttrs for the keys
// with special meaning.
type Attrs map[string]any

// Expr is one classified expression
type Expr struct {
	Kind     ExprKind
	Position int // argument position in the call
	Index    int // flattened expression index, unique per template
	// Value holds the normalized payload: string (primitive), Callback,
	// *html.Node, *Template, Directive or map[string]any (attrs)
	Value any
}

// nodeMarker reports whether the expression needs a node marker rather than an
// attribute marker
func (e Expr) nodeMarker() bool {
	switch e.Kind {
	case KindNode, KindTemplate:
		return true
	case KindDirective:
		return e.Value.(Directive).Type() == NodeDirective
	}
	return false
}

// Classify determines the kind of v. Slices are not accepted here; the tagger
// flattens them before classifying their elements.
func Classify(position, index int, v any) (Expr, error) {
	e := Expr{Position: position, Index: index}

	if text, ok := primitiveText(v); ok {
		e.Kind, e.Value = KindPrimitive, text
		return e, nil
	}

	switch x := v.(type) {
	case Callback:
		if x != nil {
			e.Kind, e.Value = KindCallback, x
			return e, nil
		}
	case func(*ElementRef) bool:
		if x != nil {
			e.Kind, e.Value = KindCallback, Callback(x)
			return e, nil
		}
	case func(*ElementRef):
		if x != nil {
			e.Kind, e.Value = KindCallback, Callback(func(ref *ElementRef) bool {
				x(ref)
				return true
			})
			return e, nil
		}
	case *html.Node:
		if x != nil {
			e.Kind, e.Value = KindNode, x
			return e, nil
		}
	case *Template:
		if x != nil {
			e.Kind, e.Value = KindTemplate, x
			return e, nil
		}
	case Directive:
		if x.def != nil {
			e.Kind, e.Value = KindDirective, x
			return e, nil
		}
	case Attrs:
		if x != nil {
			e.Kind, e.Value = KindAttrs, map[string]any(x)
			return e, nil
		}
	case map[string]any:
		if x != nil {
			e.Kind, e.Value = KindAttrs, x
			return e, nil
		}
	case map[string]string:
		if x != nil {
			m := make(map[string]any, len(x))
			for k, val := range x {
				m[k] = val
			}
			e.Kind, e.Value = KindAttrs, m
			return e, nil
		}
	}

	return Expr{}, &InvalidExpressionError{
		Index:    index,
		Position: position,
		Type:     fmt.Sprintf("%T", v),
	}
}

// primitiveText formats strings, byte slices, booleans and numbers, including
// named types built on them
func primitiveText(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if isBytes(v) {
		return string(reflect.ValueOf(v).Bytes()), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return "", false
}

// flatten expands one level of slices and arrays. Each element keeps the
// position of the slice.
func flatten(v any) []any {
	if v == nil {
		return []any{nil}
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || isBytes(v) {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
