package dom

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// ApplyAttrs assigns an attribute map to element n. Keys are processed in
// sorted order so repeated applications are deterministic.
//
//   - "className": space separated classes appended to the class list
//   - "style":     map of camelCase properties merged into the inline style
//   - "dataset":   map of camelCase keys written as data-* attributes
//   - "[name]":    content attribute; false removes, true sets it empty
//   - anything else is assigned as a property (see SetProperty)
func ApplyAttrs(n *html.Node, attrs map[string]any) error {
	for _, name := range sortedKeys(attrs) {
		value := attrs[name]
		switch name {
		case "className":
			AddClass(n, strings.Fields(Stringify(value))...)
		case "style":
			if err := applyStyle(n, value); err != nil {
				return err
			}
		case "dataset":
			if err := applyDataset(n, value); err != nil {
				return err
			}
		default:
			if attr, ok := bracketed(name); ok {
				setBracketAttr(n, attr, value)
				continue
			}
			if err := SetProperty(n, name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateAttrs applies an update map to element n. It differs from ApplyAttrs
// in that "className" replaces the class attribute, "![name]" removes an
// attribute and a []any value invokes a stored method property with those
// arguments.
func UpdateAttrs(n *html.Node, attrs map[string]any) error {
	for _, name := range sortedKeys(attrs) {
		value := attrs[name]
		switch name {
		case "style":
			if err := applyStyle(n, value); err != nil {
				return err
			}
		case "dataset":
			if err := applyDataset(n, value); err != nil {
				return err
			}
		default:
			if strings.HasPrefix(name, "![") && strings.HasSuffix(name, "]") {
				RemoveAttr(n, name[2:len(name)-1])
				continue
			}
			if attr, ok := bracketed(name); ok {
				SetAttr(n, attr, Stringify(value))
				continue
			}
			if args, ok := value.([]any); ok {
				if method, ok := Prop(n, strings.ToLower(name)); ok {
					if fn, ok := method.(func(args ...any)); ok {
						fn(args...)
						continue
					}
				}
			}
			if err := SetProperty(n, name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func bracketed(name string) (string, bool) {
	if len(name) > 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		return name[1 : len(name)-1], true
	}
	return "", false
}

func setBracketAttr(n *html.Node, attr string, value any) {
	switch v := value.(type) {
	case bool:
		if v {
			SetAttr(n, attr, "")
		} else {
			RemoveAttr(n, attr)
		}
	default:
		SetAttr(n, attr, Stringify(v))
	}
}

func applyStyle(n *html.Node, value any) error {
	switch styles := value.(type) {
	case map[string]string:
		for _, prop := range sortedKeys(styles) {
			SetStyle(n, prop, styles[prop])
		}
	case map[string]any:
		for _, prop := range sortedKeys(styles) {
			SetStyle(n, prop, Stringify(styles[prop]))
		}
	case string:
		SetAttr(n, "style", styles)
	default:
		return fmt.Errorf("style must be a map or string, got %T", value)
	}
	return nil
}

func applyDataset(n *html.Node, value any) error {
	switch data := value.(type) {
	case map[string]string:
		for _, key := range sortedKeys(data) {
			SetData(n, key, data[key])
		}
	case map[string]any:
		for _, key := range sortedKeys(data) {
			SetData(n, key, Stringify(data[key]))
		}
	default:
		return fmt.Errorf("dataset must be a map, got %T", value)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
