package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arjunmehta/relsync/dbconn"
	"github.com/arjunmehta/relsync/introspect"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database connectivity and whether the target schema exists",
	Long: `check pings the database and reports whether the configured
schema is present, mirroring the teacher's check/health commands.

Examples:
  relsync check                 # check the default connection
  relsync check --timeout 10s   # set a custom timeout
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		pool, err := dbconn.GetPool(ctx)
		if err != nil {
			return fmt.Errorf("getting connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("pinging database: %w", err)
		}

		conn, err := dbconn.Connect(ctx)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		state, err := introspect.Read(ctx, conn, cfg.SchemaName)
		if err != nil {
			return fmt.Errorf("reading catalog state: %w", err)
		}

		if !state.SchemaExists {
			fmt.Printf("⚠️  schema %q not found\n", cfg.SchemaName)
			return nil
		}

		fmt.Printf("✅ schema %q found, %d column(s) observed\n", cfg.SchemaName, len(state.Columns))
		return nil
	},
}

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "timeout for the check")
}
