package main

import (
	"fmt"

	"github.com/dgallion1/docoutline/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and engine revision",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "outline %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
