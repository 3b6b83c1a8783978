package commands

import (
	"fmt"
	"net/url"

	"github.com/weekwise/weekwise/internal/config"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Print the resolved configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Println("Weekwise configuration:")
			fmt.Printf("  Server port:       %s\n", cfg.ServerPort)
			fmt.Printf("  Base URL:          %s\n", cfg.BaseURL)
			fmt.Printf("  Frontend URL:      %s\n", cfg.FrontendURL)
			fmt.Printf("  Default timezone:  %s\n", cfg.DefaultTimezone)
			fmt.Printf("  Database URL:      %s\n", redactURL(cfg.DatabaseURL))
			fmt.Printf("  Redis URL:         %s\n", redactURL(cfg.RedisURL))
			fmt.Printf("  RabbitMQ URL:      %s\n", redactURL(cfg.RabbitMQURL))
			fmt.Printf("  JWT issuer:        %s\n", cfg.JWTIssuer)
			fmt.Printf("  JWKS URL:          %s\n", cfg.JWKSURL)
			fmt.Printf("  Rate limit:        %s\n", cfg.RateLimit)
			fmt.Printf("  Calendar:          %s\n", onOff(cfg.CalendarConfigured()))
			fmt.Printf("  HSTS:              %s\n", onOff(cfg.EnableHSTS))
			fmt.Printf("  OTEL:              %s\n", onOff(cfg.OTELEnabled))
			if cfg.OTELEnabled {
				fmt.Printf("  OTEL endpoint:     %s\n", cfg.OTELEndpoint)
			}

			return nil
		},
	}
}

// redactURL masks credentials embedded in a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	if u.User != nil {
		u.User = url.User("****")
	}
	return u.String()
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
