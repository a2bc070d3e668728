package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/render"
	"github.com/spf13/cobra"
)

var rebuildFormat string

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <flat.json>",
	Short: "Rebuild a nested outline from flattened records",
	Long: `Rebuild a nested outline from flattened records, either a JSON array of
records or the object printed by "parse --format flat". Parents are inferred
from levels, document order and pages.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := readFlat(args[0])
		if err != nil {
			return err
		}

		forest, stats := hierarchy.Reconstruct(recs)
		warnings := hierarchy.Validate(forest)
		if warnings == nil {
			warnings = []doctree.Warning{}
		}
		logger.Info("rebuilt outline",
			"records", len(recs),
			"roots", len(forest),
			"ties", stats.Ties,
			"orphans", stats.Orphans,
			"page_skips", stats.PageSkips,
		)

		out := cmd.OutOrStdout()
		result := struct {
			Sections    []hierarchy.Record         `json:"sections" yaml:"sections"`
			Warnings    []doctree.Warning          `json:"warnings" yaml:"warnings"`
			Reconstruct hierarchy.ReconstructStats `json:"reconstruct" yaml:"reconstruct"`
		}{hierarchy.ToRecords(forest), warnings, stats}

		switch rebuildFormat {
		case "json":
			return writeJSON(out, result)
		case "yaml":
			return writeYAML(out, result)
		case "tree":
			p := render.NewPrinter(out, render.Options{})
			p.Tree(forest)
			p.Warnings(warnings)
			return nil
		default:
			return fmt.Errorf("unknown format %q (json, yaml, tree)", rebuildFormat)
		}
	},
}

func readFlat(path string) ([]hierarchy.FlatRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)

	var recs []hierarchy.FlatRecord
	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &recs)
	} else {
		var doc hierarchy.FlatDocument
		err = json.Unmarshal(data, &doc)
		recs = doc.Nodes
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return recs, nil
}

func init() {
	rebuildCmd.Flags().StringVarP(&rebuildFormat, "format", "f", "json", "Output format: json, yaml, tree")

	rootCmd.AddCommand(rebuildCmd)
}
