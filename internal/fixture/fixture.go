// Package fixture compiles YAML template fixtures into htag templates.
//
// A fixture is markup with ${...} sites and the data bound to them:
//
//	name: card
//	markup: |
//	  <div class="card">
//	    <h2>${text:title}</h2>
//	    <p class="${tone}">${slot:body}</p>
//	    <ul ${list:items}></ul>
//	    <button ${ref:submit}>Go</button>
//	  </div>
//	values:
//	  title: Hello
//	  tone: muted
//	  body: World
//	lists:
//	  items:
//	    item: <li>${label}</li>
//	    entries:
//	      - {key: a, label: One}
//	      - {key: b, label: Two}
//
// A bare ${name} inlines values[name]. ${text:name} and ${slot:name} bind a
// text node or slot initialized from values[name]. ${ref:name} exposes the
// element and ${list:name} renders lists[name] into the element, keyed by
// each entry's "key" field or its index. Item markup also sees ${_index}.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/recera/htag/pkg/htag"
	"github.com/recera/htag/pkg/list"
	"github.com/recera/htag/pkg/style"
)

// SiteKind is the binding requested by a ${kind:name} site
type SiteKind string

const (
	SiteValue SiteKind = "value"
	SiteText  SiteKind = "text"
	SiteRef   SiteKind = "ref"
	SiteSlot  SiteKind = "slot"
	SiteList  SiteKind = "list"
)

// ErrMissingValue is returned when a site names data the fixture lacks
var ErrMissingValue = errors.New("missing fixture value")

var siteRe = regexp.MustCompile(`\$\{(?:([a-z]+):)?([A-Za-z0-9_.-]+)\}`)

// Fixture is one template fixture file
type Fixture struct {
	Name   string            `yaml:"name"`
	Markup string            `yaml:"markup"`
	Values map[string]string `yaml:"values,omitempty"`
	Lists  map[string]*List  `yaml:"lists,omitempty"`
	Styles style.Rules       `yaml:"styles,omitempty"`

	// Path is the file the fixture was loaded from
	Path string `yaml:"-"`
}

// List is the data of a ${list:name} site
type List struct {
	// Item is the markup of one entry; its bare ${field} sites read the
	// entry's fields
	Item    string              `yaml:"item"`
	Entries []map[string]string `yaml:"entries"`
}

// Site is one ${...} occurrence in the markup
type Site struct {
	Kind SiteKind
	Name string
}

// Options tunes compilation
type Options struct {
	KeyName      string
	IndexKeyName string

	// Clean drops the list bookkeeping attributes from rendered output
	Clean bool
}

// Load reads a fixture file
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Parse decodes fixture data
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if strings.TrimSpace(f.Markup) == "" {
		return nil, errors.New("fixture has no markup")
	}
	for _, s := range f.Sites() {
		switch s.Kind {
		case SiteValue, SiteText, SiteRef, SiteSlot, SiteList:
		default:
			return nil, fmt.Errorf("unknown site kind %q in ${%s:%s}", s.Kind, s.Kind, s.Name)
		}
	}
	return &f, nil
}

// LoadDir loads every .yaml and .yml fixture in dir, sorted by file name
func LoadDir(dir string) ([]*Fixture, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}
	fixtures := make([]*Fixture, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// Files lists the fixture files in dir
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Sites returns the sites of the markup in source order
func (f *Fixture) Sites() []Site {
	return sites(f.Markup)
}

func sites(markup string) []Site {
	var out []Site
	for _, m := range siteRe.FindAllStringSubmatch(markup, -1) {
		kind := SiteKind(m[1])
		if kind == "" {
			kind = SiteValue
		}
		out = append(out, Site{Kind: kind, Name: m[2]})
	}
	return out
}

// Compile builds the fixture template
func (f *Fixture) Compile(opts Options) (*htag.Template, error) {
	segments, exprs, err := f.split(opts)
	if err != nil {
		return nil, err
	}
	tpl, err := htag.Parse(segments, exprs...)
	if err != nil {
		return nil, err
	}

	for _, s := range f.Sites() {
		if s.Kind != SiteSlot {
			continue
		}
		if v, ok := f.Values[s.Name]; ok {
			if err := tpl.Slot(s.Name).Set(v); err != nil {
				return nil, fmt.Errorf("slot %q: %w", s.Name, err)
			}
		}
	}
	return tpl, nil
}

func (f *Fixture) split(opts Options) ([]string, []any, error) {
	var (
		segments []string
		exprs    []any
		last     int
	)
	for _, loc := range siteRe.FindAllStringSubmatchIndex(f.Markup, -1) {
		segments = append(segments, f.Markup[last:loc[0]])
		last = loc[1]

		kind := SiteKind(submatch(f.Markup, loc, 1))
		name := submatch(f.Markup, loc, 2)

		var expr any
		switch kind {
		case "", SiteValue:
			v, ok := f.Values[name]
			if !ok {
				return nil, nil, fmt.Errorf("%w: %q", ErrMissingValue, name)
			}
			expr = v
		case SiteText:
			expr = htag.Text(name, f.Values[name])
		case SiteRef:
			expr = htag.Ref(name)
		case SiteSlot:
			expr = htag.Slot(name)
		case SiteList:
			l := f.Lists[name]
			if l == nil {
				return nil, nil, fmt.Errorf("%w: list %q", ErrMissingValue, name)
			}
			expr = htag.List(l.options(name, opts))
		default:
			return nil, nil, fmt.Errorf("unknown site kind %q", kind)
		}
		exprs = append(exprs, expr)
	}
	segments = append(segments, f.Markup[last:])
	return segments, exprs, nil
}

func submatch(s string, loc []int, i int) string {
	if loc[2*i] < 0 {
		return ""
	}
	return s[loc[2*i]:loc[2*i+1]]
}

// Entry is one list entry: its fields by name
type Entry = map[string]string

func (l *List) options(name string, opts Options) htag.ListOptions[Entry] {
	return htag.ListOptions[Entry]{
		Name:         name,
		Items:        l.Collection(),
		Node:         l.render,
		KeyName:      opts.KeyName,
		IndexKeyName: opts.IndexKeyName,
	}
}

// Collection returns the entries keyed by their "key" field, falling back to
// the entry index
func (l *List) Collection() *list.Map[Entry] {
	m := list.NewMap[Entry]()
	for i, e := range l.Entries {
		key, ok := e["key"]
		if !ok {
			key = strconv.Itoa(i)
		}
		m.Set(key, e)
	}
	return m
}

func (l *List) render(entry Entry, info list.Info) (any, error) {
	item := &Fixture{Markup: l.Item, Values: map[string]string{"_index": strconv.Itoa(info.Index)}}
	for k, v := range entry {
		item.Values[k] = v
	}
	for _, s := range item.Sites() {
		if s.Kind != SiteValue {
			return nil, fmt.Errorf("list item sites must be plain values, got ${%s:%s}", s.Kind, s.Name)
		}
	}
	return item.Compile(Options{})
}
