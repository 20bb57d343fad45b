package htag

import (
	"strings"

	"golang.org/x/net/html"
)

// reservedPrefix cannot start a member name
const reservedPrefix = "$"

// Template is the result of parsing one template invocation: the bound node
// tree, its deferred callbacks and the members contributed by directives.
type Template struct {
	node      *html.Node
	callbacks *CallbackSet
	members   map[string]any
	names     []string
}

func newTemplate(root *html.Node) *Template {
	return &Template{
		node:      root,
		callbacks: NewCallbackSet(),
		members:   make(map[string]any),
	}
}

// Node returns the root node: the single top-level node of the markup, or a
// fragment holding all top-level nodes
func (t *Template) Node() *html.Node {
	if t == nil {
		return nil
	}
	return t.node
}

// Callbacks returns the deferred callback set
func (t *Template) Callbacks() *CallbackSet {
	return t.callbacks
}

// Define adds a named member. Names starting with "$" and names already
// defined are rejected with a *DuplicateKeyError.
func (t *Template) Define(name string, v any) error {
	if strings.HasPrefix(name, reservedPrefix) {
		return &DuplicateKeyError{Key: name, Scope: "template", Reserved: true}
	}
	if _, ok := t.members[name]; ok {
		return &DuplicateKeyError{Key: name, Scope: "template"}
	}
	t.members[name] = v
	t.names = append(t.names, name)
	return nil
}

// Member returns the member stored under name
func (t *Template) Member(name string) (any, bool) {
	v, ok := t.members[name]
	return v, ok
}

// Members returns the member names in definition order
func (t *Template) Members() []string {
	return append([]string(nil), t.names...)
}

// Ref returns the element reference defined by the Ref directive
func (t *Template) Ref(name string) *ElementRef {
	return memberAs[*ElementRef](t, name)
}

// Text returns the text binding defined by the Text directive
func (t *Template) Text(name string) *TextBinding {
	return memberAs[*TextBinding](t, name)
}

// Slot returns the slot binding defined by the Slot directive
func (t *Template) Slot(name string) *SlotBinding {
	return memberAs[*SlotBinding](t, name)
}

// Nested returns the child template defined by the Nest directive
func (t *Template) Nested(name string) *Template {
	return memberAs[*Template](t, name)
}

// Fn returns the function defined by the Fn directive
func (t *Template) Fn(name string) func(args ...any) {
	return memberAs[func(args ...any)](t, name)
}

// Refs returns the node map produced by the Refs directive
func (t *Template) Refs() map[string]*html.Node {
	return memberAs[map[string]*html.Node](t, refsKey)
}

// Updatable returns the updater produced by the Updatable directive
func (t *Template) Updatable() AttrsUpdater {
	return memberAs[AttrsUpdater](t, updateKey)
}

// UpdatableNode returns the updater produced by the UpdatableNode directive
func (t *Template) UpdatableNode() NodeUpdater {
	return memberAs[NodeUpdater](t, updateNodeKey)
}

// ListOf returns the list binding defined by the List directive
func ListOf[T any](t *Template, name string) *ListBinding[T] {
	return memberAs[*ListBinding[T]](t, name)
}

func memberAs[T any](t *Template, name string) T {
	v, _ := t.members[name].(T)
	return v
}
