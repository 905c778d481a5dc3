package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"flowd/internal/catalog"
	"flowd/internal/plugins"
)

type catalogConfig struct {
	jsonOutput bool
	strict     bool
}

func newCatalogCmd(s *settings) *cobra.Command {
	cfg := &catalogConfig{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate the catalog and print its tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := plugins.Builtin()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(s.CatalogPath, catalog.WithRegistry(reg))
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), cat, cfg)
		},
	}
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "print the tree as JSON")
	cmd.Flags().BoolVar(&cfg.strict, "strict", false, "fail when any entry was skipped")
	return cmd
}

func printCatalog(w io.Writer, cat *catalog.Catalog, cfg *catalogConfig) error {
	if cfg.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cat.Tree()); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tTASK\tPIPELINE\tREVISION\tWEIGHT KEYS")
		for _, c := range cat.Categories {
			for _, t := range c.Tasks {
				for _, p := range t.Pipelines {
					for _, r := range p.Revisions {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n", c.Name, t.Name, p.Tag, r.Name, r.SortedWeightKeys())
					}
				}
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for _, e := range cat.Skipped {
		fmt.Fprintf(w, "skipped: %v\n", e)
	}
	if cfg.strict && len(cat.Skipped) > 0 {
		return fmt.Errorf("%d catalog entries skipped", len(cat.Skipped))
	}
	return nil
}
