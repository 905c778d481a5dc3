package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"flowd/internal/catalog"
	"flowd/internal/plugins"
	"flowd/internal/weights"
)

type weightsConfig struct {
	scanDir string
	exts    string
}

func newWeightsCmd(s *settings) *cobra.Command {
	cfg := &weightsConfig{}
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "List catalog weights and whether their files are present",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := plugins.Builtin()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(s.CatalogPath, catalog.WithRegistry(reg))
			if err != nil {
				return err
			}
			return printWeights(cmd.OutOrStdout(), cat, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.scanDir, "scan", "", "also list files in this directory that no weight references")
	cmd.Flags().StringVar(&cfg.exts, "ext", ".gguf,.pt,.onnx,.bin,.png,.jpg", "comma-separated extensions considered by --scan")
	return cmd
}

func printWeights(w io.Writer, cat *catalog.Catalog, cfg *weightsConfig) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID\tENABLED\tLOCAL\tPRESENT\tONLINE")
	referenced := make(map[string]bool)
	for _, rec := range cat.Weights() {
		present := "-"
		if rec.Local != "" {
			p, err := weights.ExpandHome(rec.Local)
			if err == nil {
				if abs, err := filepath.Abs(p); err == nil {
					p = abs
				}
				referenced[p] = true
				present = fmt.Sprint(weights.PathExists(p))
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\t%s\t%s\n", rec.Name, rec.ID, rec.Enabled, rec.Local, present, rec.Online)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if cfg.scanDir == "" {
		return nil
	}
	files, err := weights.Scan(cfg.scanDir, splitCSV(cfg.exts)...)
	if err != nil {
		return err
	}
	for _, f := range files {
		if !referenced[f.Path] {
			fmt.Fprintf(w, "unreferenced: %s (%d bytes)\n", f.Path, f.Size)
		}
	}
	return nil
}
