package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/cogtrain/internal/adapters/repository/sqlite"
	"github.com/okian/cogtrain/internal/config"
	"github.com/okian/cogtrain/pkg/logger"
)

func migrateCMD() *cobra.Command {
	var dbPath string
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := logger.InitWriter(cmd.ErrOrStderr()); err != nil {
				return err
			}
			if dbPath == "" {
				cfg, err := config.Load(ctx)
				if err != nil {
					return err
				}
				dbPath = cfg.DBPath
			}

			store, err := sqlite.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "database migrated", logger.String("db_path", dbPath), logger.Int("schema_version", version))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", dbPath, version)
			return nil
		},
	}
	migrate.Flags().StringVar(&dbPath, "db", "", "database file (default from config)")
	return migrate
}
