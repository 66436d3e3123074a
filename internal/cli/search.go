package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/entity"
)

var searchOffline bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search archived receipts",
	Long: `Searches receipts by free text. The query supersedes structured
filters until cleared. With --offline the local archive cache is
matched against vendor and category instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchOffline, "offline", false, "query the local archive cache")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if searchOffline {
		if archive == nil {
			return errors.New("archive cache is disabled")
		}
		docs, total, err := archive.List(ctx, entity.Criteria{Query: query}, entity.DefaultSort(), 0, 0)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printSearchResults(cmd, docs, total)
	}

	if docStore == nil {
		return errors.New("document store not configured")
	}
	if err := docStore.Search(ctx, query); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	col := docStore.State().Collection
	return printSearchResults(cmd, col.Items, col.Total)
}

func printSearchResults(cmd *cobra.Command, docs []entity.Document, total int) error {
	if len(docs) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Println("Results:")
	cmd.Println()
	for i := range docs {
		printDocumentLine(cmd, docs[i])
	}
	cmd.Println()
	cmd.Printf("Showing %d of %d matches\n", len(docs), total)
	return nil
}
