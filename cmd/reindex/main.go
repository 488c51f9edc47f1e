package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aktagon/newsletter-wrapper/internal/store"
)

var indexPath string

var rootCmd = &cobra.Command{
	Use:   "reindex <newsletters-directory>",
	Short: "Rebuild the newsletter index from stored issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := store.OpenIndex(indexPath)
		if err != nil {
			return err
		}
		defer idx.Close()

		n, err := reindex(idx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d issues\n", n)

		latest, err := idx.Recent(1)
		if err != nil {
			return err
		}
		if len(latest) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Latest: %s %s\n", latest[0].Date, latest[0].Subject)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&indexPath, "index", filepath.Join(".newsletter-wrapper", "index.db"), "Path to the index database")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// reindex upserts every <date>.json under dir into idx and returns how many were indexed
func reindex(idx *store.Index, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on errors
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		meta, err := store.ReadMeta(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			return nil
		}
		if meta.Date == "" {
			meta.Date = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		if meta.Subject == "" {
			log.Printf("No subject in %s, skipping", path)
			return nil
		}

		if err := idx.Upsert(meta); err != nil {
			log.Printf("Error indexing %s: %v", path, err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("walking directory: %w", err)
	}
	return count, nil
}
