package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recera/htag/pkg/style"
)

func newStyleCommand(a *app) *cobra.Command {
	var showHash bool

	cmd := &cobra.Command{
		Use:   "style [rules.yaml]...",
		Short: "Convert YAML style rules to CSS",
		Long: `Converts YAML style rule files to CSS. Without arguments the files listed
under "styles" in htag.yaml are used. Identical sheets are emitted once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = a.stylePaths()
			}
			if len(paths) == 0 {
				return fmt.Errorf("no style files given and none configured")
			}

			reg := style.NewRegistry()
			out := cmd.OutOrStdout()
			for _, path := range paths {
				rules, err := loadRules(path)
				if err != nil {
					return err
				}
				id := reg.Add(rules)
				if showHash {
					fmt.Fprintf(out, "%s %s\n", id, path)
				}
			}
			if !showHash {
				fmt.Fprint(out, reg.CSS())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showHash, "hash", false, "Print each sheet's id instead of the CSS")

	return cmd
}

// stylePaths returns the configured style files relative to the project
func (a *app) stylePaths() []string {
	paths := make([]string, 0, len(a.cfg.Styles))
	for _, p := range a.cfg.Styles {
		if !filepath.IsAbs(p) {
			p = filepath.Join(a.projectDir, p)
		}
		paths = append(paths, p)
	}
	return paths
}

func loadRules(path string) (style.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules, err := style.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
