package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/render"
	"github.com/spf13/cobra"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|flat.json>",
	Short: "Report structural warnings for an outline",
	Long: `Build the outline of a document, or rebuild one from flattened JSON records,
and list the structural warnings found in it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var warnings []doctree.Warning
		if strings.EqualFold(filepath.Ext(args[0]), ".json") {
			recs, err := readFlat(args[0])
			if err != nil {
				return err
			}
			forest, _ := hierarchy.Reconstruct(recs)
			warnings = hierarchy.Validate(forest)
		} else {
			doc, _, err := buildFile(args[0])
			if err != nil {
				return err
			}
			warnings = doc.Warnings
		}

		out := cmd.OutOrStdout()
		render.NewPrinter(out, render.Options{}).Warnings(warnings)
		fmt.Fprintf(out, "%d warnings\n", len(warnings))
		if validateStrict && len(warnings) > 0 {
			return fmt.Errorf("%s: %d warnings", filepath.Base(args[0]), len(warnings))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Exit non-zero when any warning is found")

	rootCmd.AddCommand(validateCmd)
}
