package commands

import (
	"fmt"
	"os"

	"github.com/weekwise/weekwise/internal/config"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  "Apply any pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// database.New runs pending migrations on connect.
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			fmt.Println("Database schema is up to date")
			return nil
		},
	}
}
