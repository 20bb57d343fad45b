package style

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/recera/htag/pkg/dom"
)

// Registry collects generated style sheets for injection into a page.
// Identical sheets are stored once.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	sheets map[string]string
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sheets: make(map[string]string)}
}

// Add stringifies rules and stores the sheet. It returns the sheet hash.
func (r *Registry) Add(rules Rules) string {
	return r.AddCSS(Stringify(rules))
}

// AddCSS stores raw CSS text and returns its hash. Empty text is ignored.
func (r *Registry) AddCSS(css string) string {
	if css == "" {
		return ""
	}
	hash := Hash(css)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sheets[hash]; !ok {
		r.sheets[hash] = css
		r.order = append(r.order, hash)
	}
	return hash
}

// Len returns the number of distinct sheets
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// CSS returns all sheets joined by newlines, in insertion order
func (r *Registry) CSS() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, hash := range r.order {
		b.WriteString(r.sheets[hash])
		b.WriteString("\n")
	}
	return b.String()
}

// Sheet returns a detached <style> element holding all sheets
func (r *Registry) Sheet() *html.Node {
	el := dom.NewElement("style")
	if css := r.CSS(); css != "" {
		dom.Append(el, dom.NewText(css))
	}
	return el
}

// Reset clears all registered sheets (useful for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.sheets = make(map[string]string)
}

// Hash returns the short content hash used as a sheet identity
func Hash(css string) string {
	sum := sha256.Sum256([]byte(css))
	return "_" + hex.EncodeToString(sum[:])[:6]
}

// Register adds rules to the global registry
func Register(rules Rules) string {
	return globalRegistry.Add(rules)
}

// GetAllCSS returns the CSS of the global registry
func GetAllCSS() string {
	return globalRegistry.CSS()
}

// Sheet returns a <style> element for the global registry
func Sheet() *html.Node {
	return globalRegistry.Sheet()
}

// Reset clears the global registry
func Reset() {
	globalRegistry.Reset()
}
