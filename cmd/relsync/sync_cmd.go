package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arjunmehta/relsync/dbconn"
	"github.com/arjunmehta/relsync/sync"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Diff the declared schema against the database and apply fixes",
	Long: `sync compares the declared schema file against the live database
and, unless --dry-run is given, applies every resolvable issue's SQL in
the fixed fulfillment order.

Examples:
  relsync sync              # diff and apply
  relsync sync --dry-run    # diff only, report what would change
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := loadSchema()
		if err != nil {
			return err
		}

		ctx := context.Background()
		conn, err := dbconn.Connect(ctx)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		result, err := sync.Sync(ctx, conn, cfg.SchemaName, tables, sync.Options{Fulfill: !syncDryRun})
		if err != nil {
			return err
		}

		fmt.Printf("run %s: %d issue(s)\n", result.RunID, len(result.Issues))
		for _, iss := range result.Issues {
			status := "⏳"
			switch {
			case iss.Fulfilled:
				status = "✅"
			case iss.Error != nil:
				status = "❌"
			case !iss.Resolvable:
				status = "⚠️"
			}
			fmt.Printf("  %s [%s] %s.%s.%s\n", status, iss.Kind, iss.Schema, iss.Table, iss.Field)
		}
		for _, w := range result.Warnings {
			fmt.Println("  ⚠️ ", w)
		}

		if !result.Resolvable {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "diff only, do not apply any SQL")
}
