package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/logger"
	"inventory-sync/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd is the parent command for sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync once and exit",
}

// syncInventoryCmd runs one inventory sync.
var syncInventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Sync branch inventory from the POS",
	Long: `Fetches current stock for every active branch and upserts it into the inventory table.
Prints a summary, or the full result with --json. Exits non-zero when the run failed.`,
	RunE: runSyncInventory,
}

func init() {
	syncInventoryCmd.Flags().Bool("json", false, "Print the run summary as JSON")
	syncCmd.AddCommand(syncInventoryCmd)
	RootCmd.AddCommand(syncCmd)
}

func runSyncInventory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection required: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logg.Warn("Failed to close database", zap.Error(err))
		}
	}()

	archive, err := openArchive(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open run archive: %w", err)
	}

	svc, cleanup, err := newInventoryService(ctx, cfg, db, archive, logg)
	defer cleanup()
	if err != nil {
		return err
	}

	summary := svc.RunInventorySync(ctx)

	if jsonOutput {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printSummary(summary)
	}

	if !summary.Success {
		return errors.New(summary.Error)
	}
	return nil
}

func printSummary(s reconcile.Summary) {
	fmt.Println("\n=== Inventory Sync ===")
	if !s.Success {
		fmt.Printf("Status: failed\nError: %s\n", s.Error)
		return
	}
	fmt.Println(s.Message)
	for _, r := range s.Results {
		line := fmt.Sprintf("  %-24s %-7s %d updated", r.Branch, r.Status, r.ProductsUpdated)
		if r.ProductsFailed > 0 {
			line += fmt.Sprintf(", %d failed", r.ProductsFailed)
		}
		if r.Error != "" {
			line += " (" + r.Error + ")"
		}
		fmt.Println(line)
	}
	if s.AuditFailed {
		fmt.Println("Warning: the run could not be recorded in sync_logs")
	}
}
