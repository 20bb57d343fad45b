package dom

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

func attrKey(n *html.Node, key string) string {
	if n != nil && n.Namespace == "" {
		return strings.ToLower(key)
	}
	return key
}

// GetAttr returns the value of attribute key on n
func GetAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	key = attrKey(n, key)
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries attribute key
func HasAttr(n *html.Node, key string) bool {
	_, ok := GetAttr(n, key)
	return ok
}

// SetAttr sets attribute key on n, keeping its original position when it
// already exists. Writing the current value again is a no-op.
func SetAttr(n *html.Node, key, val string) {
	if n == nil || n.Type != html.ElementNode {
		return
	}
	key = attrKey(n, key)
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			if a.Val == val {
				return
			}
			n.Attr[i].Val = val
			notify(MutationAttributes, n, key)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	notify(MutationAttributes, n, key)
}

// RemoveAttr removes attribute key from n
func RemoveAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	key = attrKey(n, key)
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			notify(MutationAttributes, n, key)
			return
		}
	}
}

// Classes returns the class list of n
func Classes(n *html.Node) []string {
	v, _ := GetAttr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n has class name
func HasClass(n *html.Node, name string) bool {
	for _, c := range Classes(n) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends class names to n, skipping ones already present
func AddClass(n *html.Node, names ...string) {
	classes := Classes(n)
	changed := false
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || containsString(classes, name) {
			continue
		}
		classes = append(classes, name)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(classes, " "))
	}
}

// RemoveClass removes class names from n
func RemoveClass(n *html.Node, names ...string) {
	classes := Classes(n)
	kept := classes[:0]
	for _, c := range classes {
		if !containsString(names, c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(Classes(n)) {
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Declaration is one property of an inline style attribute
type Declaration struct {
	Property string
	Value    string
}

// Style parses the inline style attribute of n in declaration order
func Style(n *html.Node) []Declaration {
	v, _ := GetAttr(n, "style")
	var decls []Declaration
	for _, part := range strings.Split(v, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		decls = append(decls, Declaration{Property: prop, Value: strings.TrimSpace(val)})
	}
	return decls
}

// StyleValue returns the inline value of a style property
func StyleValue(n *html.Node, prop string) string {
	prop = KebabCase(prop)
	for _, d := range Style(n) {
		if d.Property == prop {
			return d.Value
		}
	}
	return ""
}

// SetStyle sets an inline style property; camelCase names are accepted.
// An empty value removes the property.
func SetStyle(n *html.Node, prop, value string) {
	prop = KebabCase(prop)
	decls := Style(n)
	found := false
	out := decls[:0]
	for _, d := range decls {
		if d.Property == prop {
			found = true
			if value == "" {
				continue
			}
			d.Value = value
		}
		out = append(out, d)
	}
	if !found && value != "" {
		out = append(out, Declaration{Property: prop, Value: value})
	}
	writeStyle(n, out)
}

// RemoveStyle removes an inline style property
func RemoveStyle(n *html.Node, prop string) {
	SetStyle(n, prop, "")
}

func writeStyle(n *html.Node, decls []Declaration) {
	if len(decls) == 0 {
		if HasAttr(n, "style") {
			RemoveAttr(n, "style")
		}
		return
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.Property + ": " + d.Value + ";"
	}
	SetAttr(n, "style", strings.Join(parts, " "))
}

// DataAttr converts a camelCase dataset key into its data-* attribute name
func DataAttr(key string) string {
	return "data-" + KebabCase(key)
}

// Data returns the dataset value stored under a camelCase key
func Data(n *html.Node, key string) (string, bool) {
	return GetAttr(n, DataAttr(key))
}

// SetData sets the dataset value stored under a camelCase key
func SetData(n *html.Node, key, val string) {
	SetAttr(n, DataAttr(key), val)
}

// DeleteData removes the dataset value stored under a camelCase key
func DeleteData(n *html.Node, key string) {
	RemoveAttr(n, DataAttr(key))
}

// KebabCase converts a camelCase name into kebab-case. Custom properties
// ("--name") are returned unchanged.
func KebabCase(name string) string {
	if strings.HasPrefix(name, "--") {
		return name
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
