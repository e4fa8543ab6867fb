package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SchemaName != "public" {
		t.Fatalf("expected default schema name 'public', got %q", cfg.SchemaName)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("expected default page size 50, got %d", cfg.PageSize)
	}
	if !cfg.Color {
		t.Fatalf("expected color on by default")
	}
}
