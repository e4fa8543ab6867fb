package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arjunmehta/relsync/config"
	"github.com/arjunmehta/relsync/schema"
)

var (
	schemaFile string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "relsync",
	Short: "A typed query builder and schema synchronizer for Postgres",
	Long: `relsync compares a declared relational schema against a live
Postgres database and reports or applies the SQL needed to reconcile them.

Examples:

  relsync diff
  relsync diff --visual
  relsync sync
  relsync check
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the CLI, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaFile, "file", "f", "schema.yaml", "declared schema file")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(healthCmd)
}

func loadSchema() ([]schema.Table, error) {
	tables, err := schema.LoadYAML(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("loading schema file %s: %w", schemaFile, err)
	}
	return tables, nil
}
