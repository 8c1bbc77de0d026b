package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog and default accounts",
		Long: `seed migrates the schema, then creates the demo categories and products
when the catalog is empty and the default admin and customer accounts when
their usernames are free. Running it twice is harmless.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(cfg.IsProduction(), cfg.LogLevel)
			log.Info("starting seed", "driver", cfg.DBDriver)

			gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			log.Info("connected to database")

			if reset {
				log.Warn("dropping all tables")
				if err := db.Reset(gormDB); err != nil {
					return fmt.Errorf("drop tables: %w", err)
				}
			}

			// Run migrations to ensure schema is up to date
			if err := db.Migrate(gormDB); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			log.Info("database migrations completed")

			res, err := seed.Run(context.Background(), repository.NewStore(gormDB))
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			log.Info("seed completed successfully",
				"categories_created", res.Categories,
				"products_created", res.Products,
				"users_created", res.Users,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "database driver: mysql, postgres or sqlite")
	cmd.Flags().StringVar(&cfg.DBDSN, "dsn", cfg.DBDSN, "database DSN")
	cmd.Flags().BoolVar(&reset, "reset", cfg.ResetDB, "drop every table before seeding")
	return cmd
}
