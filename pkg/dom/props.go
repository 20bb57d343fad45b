package dom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// propStore keeps values that cannot live in attributes (event handlers,
// methods, back-references) keyed by node identity
type propStore struct {
	mu    sync.RWMutex
	props map[*html.Node]map[string]any
}

var store = &propStore{
	props: make(map[*html.Node]map[string]any),
}

// Prop returns the stored property name of n
func Prop(n *html.Node, name string) (any, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	v, ok := store.props[n][name]
	return v, ok
}

// SetProp stores a property value on n
func SetProp(n *html.Node, name string, v any) {
	if n == nil {
		return
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	m, ok := store.props[n]
	if !ok {
		m = make(map[string]any)
		store.props[n] = m
	}
	m[name] = v
}

// DeleteProp removes a stored property from n
func DeleteProp(n *html.Node, name string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if m, ok := store.props[n]; ok {
		delete(m, name)
		if len(m) == 0 {
			delete(store.props, n)
		}
	}
}

// ReleaseProps drops every stored property of n and its descendants. It is
// called when a node is discarded for good.
func ReleaseProps(n *html.Node) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.props) == 0 {
		return
	}
	Walk(n, func(c *html.Node) bool {
		delete(store.props, c)
		return true
	})
}

// propCount reports how many nodes currently hold properties
func propCount() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.props)
}

// Handler is an event handler stored as an "on<event>" property
type Handler func(n *html.Node)

// Dispatch invokes the "on<event>" handler of n. It reports whether a
// handler ran.
func Dispatch(n *html.Node, event string) bool {
	v, ok := Prop(n, "on"+strings.ToLower(event))
	if !ok {
		return false
	}
	switch h := v.(type) {
	case Handler:
		h(n)
	case func(*html.Node):
		h(n)
	case func():
		h()
	default:
		if debugLog != nil {
			debugLog("[DOM] Unsupported handler type for", event, fmt.Sprintf("%T", v))
		}
		return false
	}
	return true
}

// propertyAttrs maps DOM property names to their content attribute
var propertyAttrs = map[string]string{
	"className":       "class",
	"htmlFor":         "for",
	"tabIndex":        "tabindex",
	"readOnly":        "readonly",
	"maxLength":       "maxlength",
	"minLength":       "minlength",
	"colSpan":         "colspan",
	"rowSpan":         "rowspan",
	"contentEditable": "contenteditable",
	"accessKey":       "accesskey",
	"autocomplete":    "autocomplete",
	"noValidate":      "novalidate",
	"formAction":      "formaction",
	"defaultValue":    "value",
	"defaultChecked":  "checked",
}

// PropertyAttr returns the content attribute backing a DOM property name
func PropertyAttr(name string) string {
	if attr, ok := propertyAttrs[name]; ok {
		return attr
	}
	if strings.HasPrefix(name, "aria") && len(name) > 4 {
		return "aria-" + strings.ToLower(name[4:])
	}
	return strings.ToLower(name)
}

// SetProperty assigns a DOM property on n. Functions and "on*" handlers go
// to the property store; text properties rewrite content; everything else is
// reflected to the matching attribute (booleans toggle presence, nil removes).
func SetProperty(n *html.Node, name string, value any) error {
	if n == nil {
		return nil
	}
	switch name {
	case "textContent", "innerText":
		text := Stringify(value)
		if TextContent(n) != text {
			SetTextContent(n, text)
		}
		return nil
	case "innerHTML":
		return SetInnerHTML(n, Stringify(value))
	}

	if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
		SetProp(n, strings.ToLower(name), value)
		return nil
	}
	if strings.HasPrefix(name, "on") && value == nil {
		DeleteProp(n, strings.ToLower(name))
		return nil
	}

	attr := PropertyAttr(name)
	switch v := value.(type) {
	case nil:
		RemoveAttr(n, attr)
	case bool:
		if v {
			SetAttr(n, attr, "")
		} else {
			RemoveAttr(n, attr)
		}
	default:
		SetAttr(n, attr, Stringify(v))
	}
	return nil
}

// Stringify converts a primitive value to its textual DOM form
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
