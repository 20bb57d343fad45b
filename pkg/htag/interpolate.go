package htag

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/recera/htag/internal/cache"
	"github.com/recera/htag/pkg/dom"
)

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// fragments caches parsed markup by tagged HTML. Entries are prototypes and
// are cloned before binding.
var fragments = cache.New[*html.Node](cache.DefaultConfig())

// SetParseCacheSize bounds the number of cached parsed templates. Zero or a
// negative size disables caching. It must not be called concurrently with
// Parse.
func SetParseCacheSize(n int) {
	if n <= 0 {
		fragments = nil
		return
	}
	fragments = cache.New[*html.Node](cache.Config{MaxEntries: n, Strategy: cache.LRU})
}

// ParseCacheStats returns hit and miss counts of the parse cache
func ParseCacheStats() (hits, misses int64) {
	if fragments == nil {
		return 0, 0
	}
	s := fragments.GetStats()
	return s.Hits, s.Misses
}

// Parse builds a template from literal segments and the expressions between
// them; len(segments) must be len(exprs)+1.
//
// Strings, booleans and numbers are inlined into the markup as is, without
// escaping. Everything else is bound after parsing: nodes and templates
// replace a placeholder, attribute maps are applied at once, callbacks are
// collected into Callbacks and directives run once all markers are resolved.
// Slices are flattened one level.
func Parse(segments []string, exprs ...any) (*Template, error) {
	tg, err := tag(segments, exprs)
	if err != nil {
		return nil, err
	}
	return interpolate(tg)
}

// Must panics if err is non-nil
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// H builds a template from alternating literal and expression arguments:
// H("<p>", name, "</p>"). Arguments at even positions must be strings.
func H(parts ...any) (*Template, error) {
	segments := make([]string, 0, len(parts)/2+1)
	exprs := make([]any, 0, len(parts)/2)
	for i, p := range parts {
		if i%2 == 1 {
			exprs = append(exprs, p)
			continue
		}
		s, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("argument %d must be a literal string, got %T", i, p)
		}
		segments = append(segments, s)
	}
	if len(parts)%2 == 0 && len(parts) > 0 {
		segments = append(segments, "")
	}
	return Parse(segments, exprs...)
}

// parse returns a private copy of the parsed markup
func parse(markup string) (*html.Node, error) {
	cached := fragments
	key := ""
	if cached != nil {
		key = cache.Key(markup)
		if proto, ok := cached.Get(key); ok {
			return dom.Clone(proto), nil
		}
	}
	frag, err := dom.ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		cached.Put(key, dom.Clone(frag))
	}
	return frag, nil
}

type directiveGroup struct {
	def       *definition
	instances []Instance
}

func interpolate(tg *tagged) (*Template, error) {
	frag, err := parse(tg.html)
	if err != nil {
		return nil, err
	}

	// Locate every marker before any substitution changes the tree
	marked := make(map[int]*html.Node, len(tg.exprs))
	if len(tg.exprs) > 0 {
		dom.Walk(frag, func(n *html.Node) bool {
			if n.Type != html.ElementNode {
				return true
			}
			for _, a := range n.Attr {
				if i, ok := markerIndex(a.Key); ok {
					marked[i] = n
				}
			}
			return true
		})
	}

	var (
		groups []*directiveGroup
		byDef  = make(map[*definition]*directiveGroup)
		refs   []*ElementRef
		thunks []func() bool
	)

	for _, e := range tg.exprs {
		node, ok := marked[e.Index]
		if !ok {
			return nil, &UnresolvedMarkerError{Index: e.Index, Template: tg.annotate()}
		}
		dom.RemoveAttr(node, attrMarker(e.Index))

		switch e.Kind {
		case KindNode:
			dom.ReplaceWith(node, e.Value.(*html.Node))
		case KindTemplate:
			dom.ReplaceWith(node, e.Value.(*Template).Node())
		case KindDirective:
			d := e.Value.(Directive)
			g, ok := byDef[d.def]
			if !ok {
				g = &directiveGroup{def: d.def}
				byDef[d.def] = g
				groups = append(groups, g)
			}
			g.instances = append(g.instances, Instance{Node: node, Index: e.Index, Args: d.args})
		case KindCallback:
			cb := e.Value.(Callback)
			ref := newElementRef(node, nil)
			refs = append(refs, ref)
			thunks = append(thunks, func() bool { return cb(ref) })
		case KindAttrs:
			if err := dom.ApplyAttrs(node, e.Value.(map[string]any)); err != nil {
				return nil, fmt.Errorf("attributes at index %d: %w", e.Index, err)
			}
		}
	}

	root := frag
	if kids := dom.Children(frag); len(kids) == 1 {
		root = kids[0]
		frag.RemoveChild(root)
	}

	t := newTemplate(root)
	for _, ref := range refs {
		ref.tpl = t
	}
	for _, fn := range thunks {
		t.callbacks.Add(fn)
	}

	for _, g := range groups {
		v, err := g.def.Callback(t, g.instances)
		if err != nil {
			return nil, err
		}
		if g.def.Key != "" {
			if err := t.Define(g.def.Key, v); err != nil {
				return nil, err
			}
		}
	}

	if debugLog != nil {
		debugLog("[htag] Interpolated", len(tg.exprs), "expressions,",
			len(groups), "directives,", t.callbacks.Len(), "callbacks")
	}
	return t, nil
}
