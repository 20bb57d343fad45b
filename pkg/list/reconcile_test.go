package list

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

type person struct {
	ID   string
	Name string
}

func itemNode(text string) *html.Node {
	li := dom.NewElement("li")
	dom.Append(li, dom.NewText(text))
	return li
}

func stringNode(item string, _ Info) (any, error) {
	return itemNode(item), nil
}

func texts(container *html.Node) []string {
	var out []string
	for _, c := range dom.ElementChildren(container) {
		out = append(out, dom.TextContent(c))
	}
	return out
}

func render[T any](t *testing.T, p Params[T]) []*html.Node {
	t.Helper()
	if err := Reconcile(p); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	return dom.ElementChildren(p.Container)
}

func TestReconcile_IdentityPreserved(t *testing.T) {
	tests := []struct {
		name  string
		items func() Collection[string]
	}{
		{
			name:  "slice",
			items: func() Collection[string] { return Slice[string]{"a", "b", "c"} },
		},
		{
			name: "map",
			items: func() Collection[string] {
				return NewMap(Entry[string]{"x", "a"}, Entry[string]{"y", "b"}, Entry[string]{"z", "c"})
			},
		},
		{
			name:  "set",
			items: func() Collection[string] { return NewSet("a", "b", "c") },
		},
		{
			name:  "record",
			items: func() Collection[string] { return Record[string]{"x": "a", "y": "b", "z": "c"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container := dom.NewElement("ul")
			calls := 0
			p := Params[string]{
				Container: container,
				Items:     tt.items(),
				Node: func(item string, info Info) (any, error) {
					calls++
					return stringNode(item, info)
				},
			}

			first := render(t, p)
			p.Items = tt.items()
			second := render(t, p)

			if calls != 3 {
				t.Errorf("expected 3 nodes created, got %d", calls)
			}
			if len(first) != 3 || len(second) != 3 {
				t.Fatalf("expected 3 children, got %d then %d", len(first), len(second))
			}
			for i := range first {
				if first[i] != second[i] {
					t.Errorf("child %d was recreated", i)
				}
			}
			if diff := cmp.Diff([]string{"a", "b", "c"}, texts(container)); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReconcile_AddRemove(t *testing.T) {
	container := dom.NewElement("ul")
	byID := func(item string, _ Info) string { return item }
	p := Params[string]{
		Container: container,
		Items:     Slice[string]{"A", "B", "C", "D", "E"},
		Node:      stringNode,
		Key:       byID,
	}
	before := render(t, p)
	nodes := map[string]*html.Node{}
	for _, n := range before {
		nodes[dom.TextContent(n)] = n
	}

	p.Items = Slice[string]{"A", "C", "E", "F"}
	after := render(t, p)

	if diff := cmp.Diff([]string{"A", "C", "E", "F"}, texts(container)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	for i, key := range []string{"A", "C", "E"} {
		if after[i] != nodes[key] {
			t.Errorf("node for %s was recreated", key)
		}
	}
	for _, key := range []string{"B", "D"} {
		if nodes[key].Parent != nil {
			t.Errorf("node for %s is still attached", key)
		}
	}
	for i, n := range after {
		if idx, _ := dom.GetAttr(n, DefaultIndexKeyName); idx != []string{"0", "1", "2", "3"}[i] {
			t.Errorf("child %d has index marker %q", i, idx)
		}
	}
}

func TestReconcile_MapScenario(t *testing.T) {
	container := dom.NewElement("div")
	people := NewMap(
		Entry[person]{"1", person{ID: "A-01", Name: "John"}},
		Entry[person]{"2", person{ID: "B-02", Name: "Brian"}},
	)
	p := Params[person]{
		Container: container,
		Items:     people,
		Node: func(item person, _ Info) (any, error) {
			row := dom.NewElement("p")
			dom.Append(row, dom.NewText(item.ID+" "+item.Name))
			return row, nil
		},
	}

	first := render(t, p)
	var keys []string
	for _, n := range first {
		key, _ := dom.GetAttr(n, DefaultKeyName)
		keys = append(keys, key)
	}
	if diff := cmp.Diff([]string{"1", "2"}, keys); diff != "" {
		t.Errorf("key markers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A-01 John", "B-02 Brian"}, texts(container)); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}

	people.Delete("1")
	second := render(t, p)
	if len(second) != 1 {
		t.Fatalf("expected 1 child after delete, got %d", len(second))
	}
	if second[0] != first[1] {
		t.Error("node for key 2 was recreated")
	}
}

func TestReconcile_RefRunsForEveryEntry(t *testing.T) {
	container := dom.NewElement("ul")
	var seen []string
	p := Params[string]{
		Container: container,
		Items:     Slice[string]{"a", "b"},
		Node:      stringNode,
		Ref: func(node any, item string, info Info) {
			if _, ok := node.(*html.Node); !ok {
				t.Errorf("ref received %T", node)
			}
			seen = append(seen, item+info.Key)
		},
	}
	render(t, p)
	render(t, p)

	if diff := cmp.Diff([]string{"a0", "b1", "a0", "b1"}, seen); diff != "" {
		t.Errorf("ref calls mismatch (-want +got):\n%s", diff)
	}
}

type rootedItem struct {
	root *html.Node
}

func (r *rootedItem) Node() *html.Node { return r.root }

func TestReconcile_RefReceivesRootedValue(t *testing.T) {
	container := dom.NewElement("ul")
	made := map[string]*rootedItem{}
	var got []any
	p := Params[string]{
		Container: container,
		Items:     Slice[string]{"a"},
		Node: func(item string, _ Info) (any, error) {
			r := &rootedItem{root: itemNode(item)}
			made[item] = r
			return r, nil
		},
		Ref: func(node any, _ string, _ Info) { got = append(got, node) },
	}
	render(t, p)
	render(t, p)

	if len(got) != 2 || got[0] != made["a"] || got[1] != made["a"] {
		t.Errorf("expected the rooted value on both passes, got %v", got)
	}
}

func TestReconcile_CustomAttributeNames(t *testing.T) {
	container := dom.NewElement("ul")
	render(t, Params[string]{
		Container:    container,
		Items:        Slice[string]{"a"},
		Node:         stringNode,
		KeyName:      "data-k",
		IndexKeyName: "data-i",
	})
	li := container.FirstChild
	if !dom.HasAttr(li, "data-k") || !dom.HasAttr(li, "data-i") {
		t.Errorf("custom markers missing: %v", li.Attr)
	}
	if dom.HasAttr(li, DefaultKeyName) {
		t.Error("default key marker should not be written")
	}
}

func TestReconcile_IgnoresUnkeyedChildren(t *testing.T) {
	container := dom.NewElement("ul")
	header := dom.NewElement("li")
	dom.Append(container, header)

	render(t, Params[string]{Container: container, Items: Slice[string]{"a"}, Node: stringNode})
	render(t, Params[string]{Container: container, Items: Slice[string]{}, Node: stringNode})

	kids := dom.ElementChildren(container)
	if len(kids) != 1 || kids[0] != header {
		t.Errorf("unkeyed child should be left alone, got %d children", len(kids))
	}
}

func TestReconcile_RemovedNodesReleaseProps(t *testing.T) {
	container := dom.NewElement("ul")
	node := func(item string, _ Info) (any, error) {
		li := itemNode(item)
		button := dom.NewElement("button")
		dom.Append(li, button)
		if err := dom.ApplyAttrs(li, map[string]any{"onclick": func() {}}); err != nil {
			return nil, err
		}
		if err := dom.ApplyAttrs(button, map[string]any{"onclick": func() {}}); err != nil {
			return nil, err
		}
		return li, nil
	}

	kids := render(t, Params[string]{Container: container, Items: Slice[string]{"a", "b"}, Node: node})
	for _, li := range kids {
		if _, ok := dom.Prop(li, "onclick"); !ok {
			t.Fatal("handler should be stored before removal")
		}
	}

	render(t, Params[string]{Container: container, Items: Slice[string]{}, Node: node})
	for _, li := range kids {
		if li.Parent != nil {
			t.Errorf("%q should be detached", dom.TextContent(li))
		}
		if _, ok := dom.Prop(li, "onclick"); ok {
			t.Errorf("removed node %q still holds its handler", dom.TextContent(li))
		}
		if _, ok := dom.Prop(li.LastChild, "onclick"); ok {
			t.Errorf("descendant of removed node %q still holds its handler", dom.TextContent(li))
		}
	}
}

func TestReconcile_DuplicateKeyedChildren(t *testing.T) {
	container := dom.NewElement("ul")
	first := itemNode("first")
	dom.SetAttr(first, DefaultKeyName, "0")
	dom.SetAttr(first, DefaultIndexKeyName, "0")
	second := itemNode("second")
	dom.SetAttr(second, DefaultKeyName, "0")
	dom.SetAttr(second, DefaultIndexKeyName, "1")
	dom.Append(container, first)
	dom.Append(container, second)

	kids := render(t, Params[string]{Container: container, Items: Slice[string]{"x"}, Node: stringNode})
	if len(kids) != 1 || kids[0] != first {
		t.Fatalf("expected only the first keyed child to survive, got %v", texts(container))
	}
	if second.Parent != nil {
		t.Error("the repeated key should be removed")
	}

	kids = render(t, Params[string]{Container: container, Items: Slice[string]{}, Node: stringNode})
	if len(kids) != 0 {
		t.Errorf("expected an empty list, got %v", texts(container))
	}
}

func TestReconcile_Errors(t *testing.T) {
	tests := []struct {
		name string
		node func(string, Info) (any, error)
		key  func(string, Info) string
		want error
	}{
		{
			name: "text node",
			node: func(item string, _ Info) (any, error) { return dom.NewText(item), nil },
			want: ErrInvalidListItem,
		},
		{
			name: "fragment",
			node: func(item string, _ Info) (any, error) {
				frag := dom.NewFragment()
				frag.AppendChild(itemNode(item))
				frag.AppendChild(itemNode(item))
				return frag, nil
			},
			want: ErrInvalidListItem,
		},
		{
			name: "unsupported value",
			node: func(item string, _ Info) (any, error) { return item, nil },
			want: ErrInvalidListItem,
		},
		{
			name: "duplicate key",
			node: stringNode,
			key:  func(string, Info) string { return "same" },
			want: ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Reconcile(Params[string]{
				Container: dom.NewElement("ul"),
				Items:     Slice[string]{"a", "b"},
				Node:      tt.node,
				Key:       tt.key,
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := Reconcile(Params[string]{Node: stringNode}); !errors.Is(err, ErrNoContainer) {
		t.Errorf("expected ErrNoContainer, got %v", err)
	}
}

func TestRecord_Order(t *testing.T) {
	r := Record[int]{"b": 1, "10": 2, "a": 3, "2": 4, "01": 5}
	var keys []string
	for _, e := range r.Entries() {
		keys = append(keys, e.Key)
	}
	if diff := cmp.Diff([]string{"2", "10", "01", "a", "b"}, keys); diff != "" {
		t.Errorf("record order mismatch (-want +got):\n%s", diff)
	}
}

func TestMapAndSet(t *testing.T) {
	m := NewMap[int]()
	m.Set("a", 1).Set("b", 2).Set("a", 3)
	if diff := cmp.Diff([]string{"a", "b"}, m.Keys()); diff != "" {
		t.Errorf("map keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := m.Get("a"); v != 3 {
		t.Errorf("Get(a) = %d, want 3", v)
	}
	if !m.Delete("a") || m.Delete("a") || m.Len() != 1 {
		t.Error("Delete did not behave as expected")
	}

	s := NewSet("x", "y", "x")
	if s.Len() != 2 || !s.Has("y") {
		t.Errorf("unexpected set contents %v", s.Values())
	}
	s.Delete("x")
	if diff := cmp.Diff([]Entry[string]{{Key: "0", Item: "y"}}, s.Entries()); diff != "" {
		t.Errorf("set entries mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkReconcile_Unchanged(b *testing.B) {
	items := make(Slice[string], 200)
	for i := range items {
		items[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	p := Params[string]{
		Container: dom.NewElement("ul"),
		Items:     items,
		Node:      stringNode,
		Key:       func(item string, _ Info) string { return item },
	}
	if err := Reconcile(p); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Reconcile(p)
	}
}
