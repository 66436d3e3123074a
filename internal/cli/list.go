package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

var (
	listCategory string
	listFrom     string
	listTo       string
	listStatuses []string
	listMin      float64
	listMax      float64
	listSort     string
	listAll      bool
	listOffline  bool
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived receipts",
	Long: `Lists receipts from the server under the given filters and sort.
With --offline the local archive cache is queried instead.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	listCmd.Flags().StringVar(&listFrom, "from", "", "from date YYYY-MM-DD")
	listCmd.Flags().StringVar(&listTo, "to", "", "to date YYYY-MM-DD")
	listCmd.Flags().StringSliceVar(&listStatuses, "status", nil, "filter by status (repeatable)")
	listCmd.Flags().Float64Var(&listMin, "min", 0, "minimum amount")
	listCmd.Flags().Float64Var(&listMax, "max", 0, "maximum amount")
	listCmd.Flags().StringVar(&listSort, "sort", "", `sort, e.g. "amount" or "-date"`)
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch every page")
	listCmd.Flags().BoolVar(&listOffline, "offline", false, "query the local archive cache")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	crit, err := criteriaFromFlags()
	if err != nil {
		return err
	}
	sort := entity.DefaultSort()
	if listSort != "" {
		sort, err = entity.ParseSort(listSort)
		if err != nil {
			return err
		}
	}

	if listOffline {
		return listFromArchive(ctx, cmd, crit, sort)
	}

	if docStore == nil {
		return errors.New("document store not configured")
	}
	if err := docStore.SetSort(ctx, sort); err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if err := docStore.SetCriteria(ctx, crit); err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if listAll {
		for docStore.State().Collection.HasMore {
			if err := docStore.LoadMore(ctx); err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
		}
	}

	col := docStore.State().Collection
	return printListing(cmd, col.Items, col.Total)
}

func listFromArchive(ctx context.Context, cmd *cobra.Command, crit entity.Criteria, sort entity.Sort) error {
	if archive == nil {
		return errors.New("archive cache is disabled")
	}
	limit := 0
	if !listAll && cfg != nil {
		limit = cfg.Collection.PageSize
	}
	docs, total, err := archive.List(ctx, crit, sort, limit, 0)
	if err != nil {
		return fmt.Errorf("archive query failed: %w", err)
	}
	return printListing(cmd, docs, total)
}

func printListing(cmd *cobra.Command, docs []entity.Document, total int) error {
	if listJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No receipts found.")
		return nil
	}
	cmd.Println("Receipts:")
	cmd.Println()
	for i := range docs {
		printDocumentLine(cmd, docs[i])
	}
	cmd.Println()
	cmd.Printf("Showing %d of %d receipts\n", len(docs), total)
	return nil
}

func criteriaFromFlags() (entity.Criteria, error) {
	var crit entity.Criteria
	crit.Category = listCategory
	if listFrom != "" {
		t, err := time.Parse("2006-01-02", listFrom)
		if err != nil {
			return crit, fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
		}
		crit.FromDate = &t
	}
	if listTo != "" {
		t, err := time.Parse("2006-01-02", listTo)
		if err != nil {
			return crit, fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
		}
		crit.ToDate = &t
	}
	for _, raw := range listStatuses {
		st := constants.DocumentStatus(raw)
		if !st.Valid() {
			return crit, fmt.Errorf("unknown status %q", raw)
		}
		crit.Statuses = append(crit.Statuses, st)
	}
	if listMin > 0 {
		v := listMin
		crit.MinAmount = &v
	}
	if listMax > 0 {
		v := listMax
		crit.MaxAmount = &v
	}
	return crit, nil
}
