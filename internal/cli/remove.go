package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Delete a receipt from the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if backend == nil {
		return errors.New("backend not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	id := args[0]

	if err := backend.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	if archive != nil {
		if err := archive.Delete(ctx, id); err != nil && logger != nil {
			logger.Warn("cli.cache.delete_failed", "document_id", id, "error", err)
		}
	}

	cmd.Printf("Removed %s.\n", id)
	return nil
}
