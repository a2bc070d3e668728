package main

import (
	"fmt"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/spf13/cobra"
)

var chunkCfg = chunker.DefaultConfig()

var chunksCmd = &cobra.Command{
	Use:   "chunks <file>",
	Short: "Split a document into outline-aware chunks",
	Long: `Build the outline of a document and split each node's text into chunks
that carry the node's breadcrumb and page range.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chunkCfg.ChunkOverlap >= chunkCfg.ChunkSize {
			return fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", chunkCfg.ChunkOverlap, chunkCfg.ChunkSize)
		}
		_, res, err := buildFile(args[0])
		if err != nil {
			return err
		}
		chunks := chunker.ChunkTree(res.Forest, chunkCfg)
		logger.Debug("chunked outline", "nodes", res.Forest.Count(), "chunks", len(chunks))
		return writeJSON(cmd.OutOrStdout(), chunks)
	},
}

func init() {
	chunksCmd.Flags().IntVar(&chunkCfg.ChunkSize, "chunk-size", chunkCfg.ChunkSize, "Target chunk size in tokens")
	chunksCmd.Flags().IntVar(&chunkCfg.ChunkOverlap, "overlap", chunkCfg.ChunkOverlap, "Overlap between consecutive chunks in tokens")
	chunksCmd.Flags().IntVar(&chunkCfg.MinChunk, "min-chunk", chunkCfg.MinChunk, "Drop chunks smaller than this many tokens")

	rootCmd.AddCommand(chunksCmd)
}
