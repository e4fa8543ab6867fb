package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arjunmehta/relsync/dbconn"
	"github.com/arjunmehta/relsync/diff"
	"github.com/arjunmehta/relsync/sync"
)

var diffVisual bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show differences between the declared schema and the database",
	Long: `diff reports every divergence between the declared schema file and
the live database, without applying anything.

Examples:
  relsync diff             # text output
  relsync diff --visual    # colorized tree grouped by table
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

		result, err := sync.Sync(ctx, conn, cfg.SchemaName, tables, sync.Options{})
		if err != nil {
			return err
		}

		if len(result.Issues) == 0 {
			fmt.Println("✅ No differences found between schema and database")
			return nil
		}

		if diffVisual && cfg.Color {
			showVisualDiff(result.Issues)
		} else {
			showTextDiff(result.Issues)
		}

		for _, w := range result.Warnings {
			fmt.Println("⚠️ ", w)
		}
		return nil
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffVisual, "visual", false, "colorized tree output grouped by table")
}

func showTextDiff(issues []diff.Issue) {
	fmt.Println("Schema differences:")
	for _, iss := range issues {
		resolvability := "resolvable"
		if !iss.Resolvable {
			resolvability = "NOT resolvable"
		}
		fmt.Printf("  [%s] %s.%s.%s (%s)\n", iss.Kind, iss.Schema, iss.Table, iss.Field, resolvability)
		if iss.Description != "" {
			fmt.Printf("      %s\n", iss.Description)
		}
	}
}

// showVisualDiff groups issues by table and prints them with fatih/color,
// green for "not found" (create) issues, red for dangling (drop) issues,
// yellow for mismatches, mirroring the teacher's showVisualDiff scheme.
func showVisualDiff(issues []diff.Issue) {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	byTable := make(map[string][]diff.Issue)
	var order []string
	for _, iss := range issues {
		key := iss.Table
		if key == "" {
			key = iss.Schema
		}
		if _, seen := byTable[key]; !seen {
			order = append(order, key)
		}
		byTable[key] = append(byTable[key], iss)
	}

	fmt.Println("🌳 Schema Changes")
	for _, table := range order {
		fmt.Printf("\n📋 %s\n", table)
		for _, iss := range byTable[table] {
			line := fmt.Sprintf("  %s %s", iss.Kind, iss.Field)
			switch issueColorClass(iss.Kind) {
			case "create":
				green.Println("  ➕", iss.Kind, iss.Field)
			case "drop":
				red.Println("  ❌", iss.Kind, iss.Field)
			case "mismatch":
				yellow.Println("  ⚡", iss.Kind, iss.Field)
			default:
				fmt.Println(line)
			}
		}
	}
}

func issueColorClass(kind diff.IssueKind) string {
	switch kind {
	case diff.SchemaNotFound, diff.TableNotFound, diff.FieldNotFound,
		diff.PrimaryKeyNotFound, diff.ForeignKeyNotFound, diff.UniqueKeyNotFound,
		diff.CheckKeyNotFound, diff.BtreeIndexNotFound:
		return "create"
	case diff.PrimaryKeyDangling, diff.ForeignKeyDangling, diff.UniqueKeyDangling,
		diff.CheckKeyDangling, diff.BtreeIndexDangling:
		return "drop"
	case diff.FieldTypeMismatch, diff.FieldNullableMismatch, diff.FieldDefaultValueMismatch,
		diff.ForeignKeyMismatch, diff.CheckKeyMismatch:
		return "mismatch"
	default:
		return ""
	}
}
