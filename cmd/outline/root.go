package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/docoutline/internal/version"
	"github.com/spf13/cobra"
)

var (
	profilePath  string
	verbose      bool
	usePdftotext bool

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Reconstruct hierarchical outlines from paginated documents",
	Long: `outline reads a PDF, DOCX, HTML, Markdown or text file and rebuilds its
outline: sections and addenda, lettered and numbered items, and the content
under each of them, with page ranges.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("outline %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", os.Getenv("HIERARCHY_PROFILE"), "YAML file overriding hierarchy thresholds")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log classification details")
	rootCmd.PersistentFlags().BoolVar(&usePdftotext, "pdftotext", true, "Fall back to pdftotext when a PDF cannot be read")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
