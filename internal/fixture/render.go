package fixture

import (
	"fmt"

	"github.com/recera/htag/pkg/list"
	htmlrender "github.com/recera/htag/pkg/renderer/html"
	"github.com/recera/htag/pkg/style"
)

// Render compiles f, runs its callbacks once and serializes the tree
func (f *Fixture) Render(opts Options) (string, error) {
	tpl, err := f.Compile(opts)
	if err != nil {
		return "", err
	}
	tpl.Callbacks().Run()

	var ro htmlrender.Options
	if opts.Clean {
		keyName, indexName := opts.KeyName, opts.IndexKeyName
		if keyName == "" {
			keyName = list.DefaultKeyName
		}
		if indexName == "" {
			indexName = list.DefaultIndexKeyName
		}
		ro.SkipAttr = func(key string) bool {
			return key == keyName || key == indexName
		}
	}
	out, err := htmlrender.RenderToString(tpl.Node(), ro)
	if err != nil {
		return "", fmt.Errorf("fixture %q: %w", f.Name, err)
	}
	return out, nil
}

// CSS returns the fixture's inline style rules as CSS text
func (f *Fixture) CSS() string {
	return style.Stringify(f.Styles)
}
