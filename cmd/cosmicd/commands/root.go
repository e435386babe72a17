// Package commands implements the cosmicd command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cosmicd",
	Short: "CosmicComics server - personal comic and manga library",
	Long: `cosmicd serves a personal comic-book and manga library: it ingests
archived books (cbz/cbr/pdf/epub and friends) into per-user page
sequences, extracts covers for books that lack one, and exposes the
progress and cover surfaces the web client reads.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
