package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recera/htag/internal/fixture"
)

func newRenderCommand(a *app) *cobra.Command {
	var clean bool
	var withCSS bool

	cmd := &cobra.Command{
		Use:   "render <fixture.yaml>...",
		Short: "Render fixtures to HTML",
		Long: `Compiles each fixture, runs its deferred callbacks once and prints the
resulting HTML.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := fixture.Load(path)
				if err != nil {
					return err
				}
				html, err := f.Render(a.fixtureOptions(clean))
				if err != nil {
					return err
				}
				if withCSS {
					if css := f.CSS(); css != "" {
						fmt.Fprintf(out, "<style>%s</style>\n", css)
					}
				}
				fmt.Fprintln(out, html)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Omit list bookkeeping attributes")
	cmd.Flags().BoolVar(&withCSS, "css", false, "Prefix the output with the fixture's styles")

	return cmd
}
