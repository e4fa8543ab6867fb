package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arjunmehta/relsync/dbconn"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	Long: `health pings the database and reports whether it is reachable,
without inspecting any schema.

Examples:
  relsync health                  # check default connection
  relsync health --timeout 5s     # set a custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()

		pool, err := dbconn.GetPool(ctx)
		if err != nil {
			return fmt.Errorf("getting connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("pinging database: %w", err)
		}

		fmt.Println("✅ database is healthy and accessible")
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "timeout for the health check")
}
