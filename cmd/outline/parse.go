package main

import (
	"fmt"

	"github.com/dgallion1/docoutline/internal/render"
	"github.com/spf13/cobra"
)

var parseFormat string
var parseContent bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Build the outline of a document",
	Long: `Build the outline of a document and print it as nested JSON, flattened
JSON, YAML or a terminal tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, res, err := buildFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch parseFormat {
		case "json":
			return writeJSON(out, doc)
		case "flat":
			return writeJSON(out, doc.Flat())
		case "yaml":
			return writeYAML(out, doc)
		case "tree":
			p := render.NewPrinter(out, render.Options{Content: parseContent})
			p.Summary(doc)
			p.Tree(res.Forest)
			p.Warnings(doc.Warnings)
			return nil
		default:
			return fmt.Errorf("unknown format %q (json, flat, yaml, tree)", parseFormat)
		}
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "json", "Output format: json, flat, yaml, tree")
	parseCmd.Flags().BoolVar(&parseContent, "content", false, "Show content previews in tree output")

	rootCmd.AddCommand(parseCmd)
}
