// Package style turns nested selector rules into CSS text.
//
// A Rules value is an ordered list of blocks. A block holds declarations and
// further blocks, which is how at-rules such as @media and @keyframes nest
// their own selectors:
//
//	css := style.Stringify(style.Rules{
//		{Selector: "@media (height: 360px)", Blocks: style.Rules{
//			{Selector: "div", Decls: []style.Decl{{"fontSize", "10px"}}},
//		}},
//	})
//	// @media (height: 360px){div{font-size:10px;}}
package style

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/recera/htag/pkg/dom"
)

// Decl is a single declaration. Property may be camelCase.
type Decl struct {
	Property string
	Value    string
}

// Block is a selector with its declarations and nested blocks
type Block struct {
	Selector string
	Decls    []Decl
	Blocks   Rules
}

// Rules is an ordered list of blocks
type Rules []Block

// Stringify renders rules as compact CSS. Declarations come before nested
// blocks inside each block and camelCase properties are written in
// kebab-case.
func Stringify(rules Rules) string {
	var b strings.Builder
	writeRules(&b, rules)
	return b.String()
}

func writeRules(b *strings.Builder, rules Rules) {
	for _, block := range rules {
		b.WriteString(block.Selector)
		b.WriteByte('{')
		for _, d := range block.Decls {
			b.WriteString(dom.KebabCase(d.Property))
			b.WriteByte(':')
			b.WriteString(d.Value)
			b.WriteByte(';')
		}
		writeRules(b, block.Blocks)
		b.WriteByte('}')
	}
}

// Map builds rules from nested Go maps. Selectors and properties are taken
// in sorted order; use Rules directly when order matters.
//
// String, number and boolean values are declarations; map values are nested
// blocks.
type Map map[string]any

// Rules converts m into ordered rules
func (m Map) Rules() (Rules, error) {
	rules := make(Rules, 0, len(m))
	for _, sel := range sortedKeys(m) {
		block, err := mapBlock(sel, m[sel])
		if err != nil {
			return nil, err
		}
		rules = append(rules, block)
	}
	return rules, nil
}

func mapBlock(selector string, v any) (Block, error) {
	block := Block{Selector: selector}
	var body map[string]any
	switch x := v.(type) {
	case Map:
		body = x
	case map[string]any:
		body = x
	case map[string]string:
		body = make(map[string]any, len(x))
		for k, val := range x {
			body[k] = val
		}
	default:
		return Block{}, fmt.Errorf("style block %q must be a map, got %T", selector, v)
	}

	for _, name := range sortedKeys(body) {
		switch x := body[name].(type) {
		case Map, map[string]any, map[string]string:
			nested, err := mapBlock(name, x)
			if err != nil {
				return Block{}, err
			}
			block.Blocks = append(block.Blocks, nested)
		case nil:
			return Block{}, fmt.Errorf("style property %q in %q has no value", name, selector)
		default:
			block.Decls = append(block.Decls, Decl{Property: name, Value: dom.Stringify(x)})
		}
	}
	return block, nil
}

// UnmarshalYAML decodes a YAML mapping of selectors, keeping document order.
// Scalar values are declarations and mapping values are nested blocks.
//
//	"@keyframes slideIn":
//	  from: {transform: translateX(0%)}
//	  to: {transform: translateX(100%)}
func (r *Rules) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.DocumentNode && len(value.Content) == 1 {
		value = value.Content[0]
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: style rules must be a mapping", value.Line)
	}
	rules := make(Rules, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		block, err := yamlBlock(value.Content[i].Value, value.Content[i+1])
		if err != nil {
			return err
		}
		rules = append(rules, block)
	}
	*r = rules
	return nil
}

func yamlBlock(selector string, body *yaml.Node) (Block, error) {
	if body.Kind != yaml.MappingNode {
		return Block{}, fmt.Errorf("line %d: style block %q must be a mapping", body.Line, selector)
	}
	block := Block{Selector: selector}
	for i := 0; i+1 < len(body.Content); i += 2 {
		name, v := body.Content[i].Value, body.Content[i+1]
		switch v.Kind {
		case yaml.ScalarNode:
			block.Decls = append(block.Decls, Decl{Property: name, Value: v.Value})
		case yaml.MappingNode:
			nested, err := yamlBlock(name, v)
			if err != nil {
				return Block{}, err
			}
			block.Blocks = append(block.Blocks, nested)
		default:
			return Block{}, fmt.Errorf("line %d: unsupported value for %q", v.Line, name)
		}
	}
	return block, nil
}

// Parse decodes YAML style rules
func Parse(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse style rules: %w", err)
	}
	return rules, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
