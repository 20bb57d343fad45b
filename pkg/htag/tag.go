package htag

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// markerPrefix starts every marker attribute. It is lower-case because the
// HTML parser lower-cases attribute names.
const markerPrefix = "data-htag-x7q3-"

func attrMarker(index int) string {
	return markerPrefix + strconv.Itoa(index)
}

func nodeMarker(index int) string {
	return "<template " + attrMarker(index) + "></template>"
}

// markerIndex parses the index out of a marker attribute name
func markerIndex(key string) (int, bool) {
	if !strings.HasPrefix(key, markerPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(markerPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// tagged is the result of tagging one template invocation
type tagged struct {
	html  string
	exprs []Expr // non-primitive expressions in index order

	segments []string
	args     []any
}

// tag classifies every expression and joins the literal segments into one
// markup string carrying a marker at each non-primitive expression.
//
// Primitives are written verbatim without escaping. Callers must not
// interpolate untrusted text as a primitive; bind it through a text node
// (Text, Slot, ElementRef.Text) instead.
func tag(segments []string, args []any) (*tagged, error) {
	if len(segments) == 0 && len(args) == 0 {
		return &tagged{}, nil
	}
	if len(segments) != len(args)+1 {
		return nil, fmt.Errorf("%d literal segments cannot surround %d expressions", len(segments), len(args))
	}

	t := &tagged{segments: segments, args: args}
	var b strings.Builder
	index := 0
	for position, seg := range segments {
		b.WriteString(seg)
		if position >= len(args) {
			break
		}
		for _, v := range flatten(args[position]) {
			e, err := Classify(position, index, v)
			if err != nil {
				var ie *InvalidExpressionError
				if errors.As(err, &ie) {
					ie.Template = t.annotate()
				}
				return nil, err
			}
			switch {
			case e.Kind == KindPrimitive:
				b.WriteString(e.Value.(string))
			case e.nodeMarker():
				b.WriteString(nodeMarker(index))
				t.exprs = append(t.exprs, e)
			default:
				b.WriteString(attrMarker(index))
				t.exprs = append(t.exprs, e)
			}
			index++
		}
	}

	// Surrounding whitespace would otherwise turn a single root element into
	// a fragment with whitespace text nodes
	t.html = strings.TrimSpace(b.String())
	return t, nil
}

// annotate rebuilds the literal template with ${n} at every expression site
// (${[n,m]} for slices) using flattened expression indices
func (t *tagged) annotate() string {
	var b strings.Builder
	index := 0
	for position, seg := range t.segments {
		b.WriteString(seg)
		if position >= len(t.args) {
			break
		}
		v := t.args[position]
		if !isList(v) {
			fmt.Fprintf(&b, "${%d}", index)
			index++
			continue
		}
		items := flatten(v)
		parts := make([]string, len(items))
		for i := range items {
			parts[i] = strconv.Itoa(index)
			index++
		}
		fmt.Fprintf(&b, "${[%s]}", strings.Join(parts, ","))
	}
	return b.String()
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	if isBytes(v) {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// isBytes reports whether v is a byte slice, which interpolates as text
func isBytes(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
