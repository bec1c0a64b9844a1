package main

import (
	service "github.com/okian/skatepark/internal/app"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/spf13/cobra"
)

type treeReport struct {
	Sport string         `json:"sport" yaml:"sport"`
	Cores map[string]int `json:"cores" yaml:"cores"`
	Nodes int            `json:"nodes" yaml:"nodes"`
}

type catalogReport struct {
	Sports   []treeReport `json:"sports" yaml:"sports"`
	Capacity int          `json:"capacity" yaml:"capacity"`
	Targets  []string     `json:"targets" yaml:"targets"`
}

func (c *cli) newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the trick catalog and the park",
	}

	var format string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load the catalog, obstacles and layout and report what they hold",
		Long: `Load the trick catalog, the obstacle catalog and the park layout, run
every load-time check on them and print a summary. The built-in files are
used for any path left empty.

Examples:
  skatepark catalog validate
  skatepark catalog validate --catalog tricks.yaml --layout park.yaml -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := catalog.Default()
			if c.cfg.CatalogPath != "" {
				var err error
				if cat, err = catalog.LoadFile(c.cfg.CatalogPath); err != nil {
					return err
				}
			}
			p, err := service.LoadPark(c.cfg.ObstaclesPath, c.cfg.LayoutPath)
			if err != nil {
				return err
			}

			rep := catalogReport{Capacity: p.Capacity()}
			for _, sport := range cat.Sports() {
				tree, _ := cat.Tree(sport)
				tr := treeReport{Sport: string(sport), Cores: map[string]int{}}
				for _, tt := range tree.Types() {
					tr.Cores[string(tt)] = len(tree.Cores(tt))
					tr.Nodes += len(tree.Nodes(tt))
				}
				rep.Sports = append(rep.Sports, tr)
			}
			for _, t := range p.Targets() {
				rep.Targets = append(rep.Targets, t.ID)
			}
			return render(cmd.OutOrStdout(), format, rep)
		},
	}
	validate.Flags().StringVarP(&format, "output", "o", "json", "Output format: json or yaml")

	cmd.AddCommand(validate)
	return cmd
}
