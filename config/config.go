// Package config loads relsync's project-level settings: the target
// schema name, a page size setting, and whether CLI
// output is colorized. Grounded on the teacher's utils/env.go (.env +
// os.Getenv for the database URL) expanded with spf13/viper, which the
// teacher's go.sum already carries as cobra's companion but never wires
// directly — here it binds a relsync.yaml file, CLI flags, and env vars
// into one resolved Config.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is relsync's resolved project configuration.
type Config struct {
	// SchemaName is the Postgres schema diff/sync operate against.
	SchemaName string
	// PageSize is the resolved page_size setting. It is not applied to
	// query.ExecOptions automatically; a query's PageSize is whatever its
	// caller passes to Exec.
	PageSize int
	// Color turns off fatih/color output in cmd/relsync when false,
	// e.g. for CI logs.
	Color bool
}

const (
	keySchemaName = "schema_name"
	keyPageSize   = "page_size"
	keyColor      = "color"
)

func defaults() Config {
	return Config{
		SchemaName: "public",
		PageSize:   50,
		Color:      true,
	}
}

// Load resolves Config from, in increasing priority: built-in defaults,
// a relsync.yaml file in the working directory, RELSYNC_-prefixed
// environment variables, and finally the flags RegisterFlags adds.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	d := defaults()
	v.SetDefault(keySchemaName, d.SchemaName)
	v.SetDefault(keyPageSize, d.PageSize)
	v.SetDefault(keyColor, d.Color)

	v.SetConfigName("relsync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading relsync.yaml: %w", err)
		}
	}

	v.SetEnvPrefix("relsync")
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return Config{}, err
		}
	}

	return Config{
		SchemaName: v.GetString(keySchemaName),
		PageSize:   v.GetInt(keyPageSize),
		Color:      v.GetBool(keyColor),
	}, nil
}

// RegisterFlags adds the flags Load knows how to bind to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("schema", "", "target schema name (overrides relsync.yaml/env)")
	flags.Int("page-size", 0, "default query page size (overrides relsync.yaml/env)")
	flags.Bool("no-color", false, "disable colorized output")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if f := flags.Lookup("schema"); f != nil {
		if err := v.BindPFlag(keySchemaName, f); err != nil {
			return fmt.Errorf("binding --schema flag: %w", err)
		}
	}
	if f := flags.Lookup("page-size"); f != nil {
		if err := v.BindPFlag(keyPageSize, f); err != nil {
			return fmt.Errorf("binding --page-size flag: %w", err)
		}
	}
	if f := flags.Lookup("no-color"); f != nil && f.Changed {
		v.Set(keyColor, false)
	}
	return nil
}
