package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/recera/htag/internal/fixture"
)

func newInspectCommand(a *app) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "inspect <fixture.yaml>",
		Short: "Show a fixture's sites, members and node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			return inspect(cmd.OutOrStdout(), f, a.fixtureOptions(clean))
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Hide list bookkeeping attributes")

	return cmd
}

func inspect(w io.Writer, f *fixture.Fixture, opts fixture.Options) error {
	tpl, err := f.Compile(opts)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render("✗ "+f.Name))
		return err
	}
	tpl.Callbacks().Run()

	fmt.Fprintln(w, titleStyle.Render(f.Name))

	fmt.Fprintln(w, sectionStyle.Render("Sites"))
	sites := f.Sites()
	if len(sites) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for _, s := range sites {
		style, ok := siteStyles[string(s.Kind)]
		if !ok {
			style = mutedStyle
		}
		fmt.Fprintf(w, "  %s %s\n", style.Render(fmt.Sprintf("%-5s", s.Kind)), s.Name)
	}

	fmt.Fprintln(w, sectionStyle.Render("Members"))
	members := tpl.Members()
	if len(members) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for _, name := range members {
		v, _ := tpl.Member(name)
		fmt.Fprintf(w, "  %s %s\n", name, mutedStyle.Render(fmt.Sprintf("%T", v)))
	}

	fmt.Fprintln(w, sectionStyle.Render("Tree"))
	var b strings.Builder
	writeTree(&b, tpl.Node(), 0, opts)
	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
	return nil
}

// writeTree prints n and its descendants, one node per line
func writeTree(b *strings.Builder, n *html.Node, depth int, opts fixture.Options) {
	indent := strings.Repeat("  ", depth)
	switch n.Type {
	case html.DocumentNode:
		b.WriteString(indent + mutedStyle.Render("#fragment") + "\n")
	case html.ElementNode:
		parts := []string{tagStyle.Render(n.Data)}
		for _, attr := range n.Attr {
			if opts.Clean && (attr.Key == opts.KeyName || attr.Key == opts.IndexKeyName) {
				continue
			}
			parts = append(parts, attrStyle.Render(fmt.Sprintf("%s=%q", attr.Key, attr.Val)))
		}
		b.WriteString(indent + strings.Join(parts, " ") + "\n")
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		b.WriteString(indent + textStyle.Render(fmt.Sprintf("%q", text)) + "\n")
	case html.CommentNode:
		b.WriteString(indent + mutedStyle.Render("<!--"+n.Data+"-->") + "\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeTree(b, c, depth+1, opts)
	}
}
