package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/config"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/queue"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the configured backing services",
		Long:  "Connect to PostgreSQL, Redis, and RabbitMQ and report which are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			failed := false

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				fmt.Printf("  postgres:  FAIL (%v)\n", err)
				failed = true
			} else {
				fmt.Println("  postgres:  ok")
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}

			if cfg.RedisURL == "" {
				fmt.Println("  redis:     not configured")
			} else {
				store, err := cache.New(cfg.RedisURL, zap.NewNop())
				if err != nil {
					fmt.Printf("  redis:     FAIL (%v)\n", err)
					failed = true
				} else {
					if err := store.Ping(ctx); err != nil {
						fmt.Printf("  redis:     FAIL (%v)\n", err)
						failed = true
					} else {
						fmt.Println("  redis:     ok")
					}
					_ = store.Close()
				}
			}

			if cfg.RabbitMQURL == "" {
				fmt.Println("  rabbitmq:  not configured (reminders disabled)")
			} else {
				q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zap.NewNop())
				if err != nil {
					fmt.Printf("  rabbitmq:  FAIL (%v)\n", err)
					failed = true
				} else {
					fmt.Println("  rabbitmq:  ok")
					_ = q.Close()
				}
			}

			if _, err := url.Parse(cfg.JWKSURL); err != nil || cfg.JWKSURL == "" {
				fmt.Println("  jwks:      invalid URL")
				failed = true
			} else {
				fmt.Println("  jwks:      configured")
			}

			if failed {
				return fmt.Errorf("one or more checks failed")
			}
			fmt.Println("All checks passed")
			return nil
		},
	}
}
