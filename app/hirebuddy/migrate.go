package main

import (
	"github.com/debanirmalya/hirebuddy/config"
	"github.com/debanirmalya/hirebuddy/internal/logger"
	pgrepo "github.com/debanirmalya/hirebuddy/internal/repositories/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the candidates table and Mongo indexes",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	ctx := cmd.Context()

	if cfg.StoreBackend == "postgres" {
		db, err := config.NewPostgres(cfg.PostgresURI)
		if err != nil {
			return err
		}
		defer config.ClosePostgres(db)

		if err := pgrepo.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("postgres schema migrated")
	}

	if cfg.AuditEnabled() {
		client, err := config.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)

		if err := config.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDB)); err != nil {
			return err
		}
		log.Info("mongo indexes ensured")
	}
	return nil
}
