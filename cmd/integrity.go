package cmd

import (
	"fmt"

	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/logger"
	"inventory-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the database schema and the run archive",
	Long:  `Verifies that the branches, inventory and sync_logs tables match the expected models, and that the archive bucket is reachable when enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		// Connect to Database (Optional)
		var db *gorm.DB
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Optional database connection failed", zap.Error(err))
		} else {
			db = conn
			defer database.Close(db)
		}

		archive, err := openArchive(ctx, cfg.Storage)
		if err != nil {
			logg.Warn("Run archive unavailable", zap.Error(err))
		}

		svc := integrity.NewService(archive, cfg.Storage.Bucket, logg, db)
		healthy := true

		logg.Info("Checking server schema integrity...")
		report, err := svc.CheckServer()
		if err != nil {
			logg.Error("Server schema check failed", zap.Error(err))
			healthy = false
		} else if report.Matched {
			logg.Info("Server schema matches expected definition.")
		} else {
			healthy = false
			logg.Warn("Server schema mismatches found")
			for table, tblReport := range report.Tables {
				if tblReport.Status == "ok" {
					continue
				}
				if tblReport.Missing {
					logg.Warn("Missing Table", zap.String("table", table))
				}
				if len(tblReport.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
				}
				if len(tblReport.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}

		logg.Info("Checking run archive...")
		st, err := svc.CheckStorage(ctx)
		switch {
		case err != nil:
			logg.Error("Storage check failed", zap.Error(err))
			healthy = false
		case st.Status == "disabled":
			logg.Info("Run archive disabled.")
		case !st.Exists:
			logg.Warn("Archive bucket missing", zap.String("bucket", st.Bucket))
			healthy = false
		default:
			logg.Info("Archive bucket is reachable.", zap.String("bucket", st.Bucket))
		}

		if !healthy {
			return fmt.Errorf("integrity checks failed")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
}
