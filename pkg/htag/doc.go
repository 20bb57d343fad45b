// Package htag builds live node trees from literal HTML interleaved with Go
// values.
//
// A template is parsed once per call. Values are classified, replaced by
// markers in the markup, and bound to the parsed nodes: strings and numbers
// are inlined, nodes and templates are substituted, attribute maps are
// applied, callbacks are deferred until Callbacks().Run and directives
// attach named members through which the tree is updated later.
//
//	tpl := htag.Must(htag.H(
//		`<p>Hello `, htag.Text("name", "world"), `</p>`,
//	))
//	tpl.Text("name").Set("gopher")
//
// Directives are created with NewDirective. The built-in ones are Ref, Text,
// List, Merge, MergeAll, Nest, Slot, Updatable, UpdatableNode, Fn and Refs.
package htag
