package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/LzzJustBeYou/MedScore/internal/config"
	"github.com/LzzJustBeYou/MedScore/internal/platform/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the configured store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, closeFn, driver, err := openMigrator(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := m.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) to %s.\n", count, driver)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, closeFn, _, err := openMigrator(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := m.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return writeMigrationStatus(cmd.OutOrStdout(), statuses)
		},
	})

	return cmd
}

func openMigrator(ctx context.Context) (*db.Migrator, func(), string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, "", err
	}
	files, err := db.Migrations(cfg.StoreDriver)
	if err != nil {
		return nil, nil, "", err
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, "", err
		}
		return db.NewMigrator(pool, files), pool.Close, cfg.StoreDriver, nil
	default:
		sqlDB, err := db.ConnectSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, "", err
		}
		return db.NewSQLMigrator(sqlDB, files), func() { sqlDB.Close() }, cfg.StoreDriver, nil
	}
}

func writeMigrationStatus(w io.Writer, statuses []db.MigrationStatus) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Version", "Name", "Status", "Applied At"})

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		rows = append(rows, []string{strconv.Itoa(s.Version), s.Name, status, appliedAt})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
