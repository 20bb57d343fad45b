package style

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recera/htag/pkg/dom"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		rules    Rules
		expected string
	}{
		{
			name:     "empty",
			rules:    nil,
			expected: "",
		},
		{
			name: "single block",
			rules: Rules{
				{Selector: "div", Decls: []Decl{{"fontSize", "10px"}}},
			},
			expected: "div{font-size:10px;}",
		},
		{
			name: "multiple blocks",
			rules: Rules{
				{Selector: "div", Decls: []Decl{{"fontSize", "10px"}}},
				{Selector: "p", Decls: []Decl{
					{"display", "flex"},
					{"flexDirection", "column"},
					{"fontFamily", "'Bungee Shade', system-ui"},
				}},
			},
			expected: "div{font-size:10px;}p{display:flex;flex-direction:column;font-family:'Bungee Shade', system-ui;}",
		},
		{
			name: "selector list",
			rules: Rules{
				{Selector: "div, p", Decls: []Decl{{"display", "flex"}}},
			},
			expected: "div, p{display:flex;}",
		},
		{
			name: "media query",
			rules: Rules{
				{Selector: "@media (height: 360px)", Blocks: Rules{
					{Selector: "div", Decls: []Decl{{"fontSize", "10px"}}},
					{Selector: "p", Decls: []Decl{{"display", "flex"}}},
				}},
			},
			expected: "@media (height: 360px){div{font-size:10px;}p{display:flex;}}",
		},
		{
			name: "keyframes",
			rules: Rules{
				{Selector: "@keyframes slideIn", Blocks: Rules{
					{Selector: "from", Decls: []Decl{{"transform", "translateX(0%)"}}},
					{Selector: "to", Decls: []Decl{{"transform", "translateX(100%)"}}},
				}},
			},
			expected: "@keyframes slideIn{from{transform:translateX(0%);}to{transform:translateX(100%);}}",
		},
		{
			name: "declarations before nested blocks",
			rules: Rules{
				{Selector: ".card", Decls: []Decl{{"color", "red"}}, Blocks: Rules{
					{Selector: "&:hover", Decls: []Decl{{"color", "blue"}}},
				}},
			},
			expected: ".card{color:red;&:hover{color:blue;}}",
		},
		{
			name: "custom property",
			rules: Rules{
				{Selector: ":root", Decls: []Decl{{"--mainColor", "teal"}}},
			},
			expected: ":root{--mainColor:teal;}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.rules); got != tt.expected {
				t.Errorf("Stringify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMapRules(t *testing.T) {
	rules, err := Map{
		"p":   map[string]string{"margin": "0"},
		"div": Map{"zIndex": 2, "@media print": map[string]any{"display": "none"}},
	}.Rules()
	if err != nil {
		t.Fatalf("Rules failed: %v", err)
	}

	want := Rules{
		{Selector: "div", Decls: []Decl{{"zIndex", "2"}}, Blocks: Rules{
			{Selector: "@media print", Decls: []Decl{{"display", "none"}}},
		}},
		{Selector: "p", Decls: []Decl{{"margin", "0"}}},
	}
	if diff := cmp.Diff(want, rules); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}

	if _, err := (Map{"div": "red"}).Rules(); err == nil {
		t.Error("expected an error for a non-map block")
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
p:
  display: flex
  flexDirection: column
div:
  fontSize: 10px
"@keyframes slideIn":
  from:
    transform: translateX(0%)
  to:
    transform: translateX(100%)
`)
	rules, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := "p{display:flex;flex-direction:column;}div{font-size:10px;}" +
		"@keyframes slideIn{from{transform:translateX(0%);}to{transform:translateX(100%);}}"
	if got := Stringify(rules); got != want {
		t.Errorf("Stringify() = %q, want %q", got, want)
	}

	for _, bad := range []string{"- a\n- b\n", "div: red\n", "div:\n  color: [red]\n"} {
		if _, err := Parse([]byte(bad)); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	h1 := r.Add(Rules{{Selector: ".test1", Decls: []Decl{{"color", "red"}}}})
	r.Add(Rules{{Selector: ".test2", Decls: []Decl{{"color", "blue"}}}})
	h3 := r.Add(Rules{{Selector: ".test1", Decls: []Decl{{"color", "red"}}}})

	if h1 != h3 || !strings.HasPrefix(h1, "_") {
		t.Errorf("identical rules should share a hash: %q %q", h1, h3)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 sheets, got %d", r.Len())
	}
	if got, want := r.CSS(), ".test1{color:red;}\n.test2{color:blue;}\n"; got != want {
		t.Errorf("CSS() = %q, want %q", got, want)
	}

	sheet := r.Sheet()
	if sheet.Data != "style" || dom.TextContent(sheet) != r.CSS() {
		t.Errorf("unexpected sheet %v", sheet)
	}

	if r.AddCSS("") != "" {
		t.Error("empty CSS should be ignored")
	}
	r.Reset()
	if r.Len() != 0 || r.Sheet().FirstChild != nil {
		t.Error("Reset should clear the registry")
	}
}

func TestGlobalRegistry(t *testing.T) {
	Reset()
	defer Reset()

	Register(Rules{{Selector: "a", Decls: []Decl{{"color", "red"}}}})
	if !strings.Contains(GetAllCSS(), "a{color:red;}") {
		t.Errorf("global CSS = %q", GetAllCSS())
	}
	if dom.TextContent(Sheet()) != GetAllCSS() {
		t.Error("Sheet should hold the global CSS")
	}
}
