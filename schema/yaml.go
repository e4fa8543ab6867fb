package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile mirrors the author-facing schema.yaml shape: a flat list of
// tables, each with an ordered list of columns. It is decoded into the
// typed Table/Field model below rather than used directly anywhere else.
type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name   string       `yaml:"name"`
	Fields []yamlField  `yaml:"fields"`
}

type yamlField struct {
	Name       string           `yaml:"name"`
	Type       string           `yaml:"type"`
	Nullable   bool             `yaml:"nullable"`
	Unique     bool             `yaml:"unique"`
	Default    *string          `yaml:"default"`
	Primary    bool             `yaml:"primary"`
	OneOf      []string         `yaml:"one_of"`
	Index      string           `yaml:"index"`
	References *yamlReference   `yaml:"references"`
}

type yamlReference struct {
	Table    string `yaml:"table"`
	Field    string `yaml:"field"`
	OnDelete string `yaml:"on_delete"`
	OnUpdate string `yaml:"on_update"`
}

// LoadYAML decodes a declarative schema.yaml file into []Table. This is an
// alternate authoring path to constructing []Table as Go literals; both
// feed the same validator and diff engine.
func LoadYAML(filename string) ([]Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", filename, err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling schema yaml: %w", err)
	}

	tables := make([]Table, 0, len(yf.Tables))
	for _, yt := range yf.Tables {
		table := Table{Name: yt.Name}
		for _, yfld := range yt.Fields {
			field := Field{
				Name:         yfld.Name,
				Type:         FieldType(yfld.Type),
				Nullable:     yfld.Nullable,
				Unique:       yfld.Unique,
				DefaultValue: yfld.Default,
				PrimaryKey:   yfld.Primary,
				OneOf:        yfld.OneOf,
			}
			if yfld.Index != "" {
				field.Index = IndexKind(yfld.Index)
			}
			if yfld.References != nil {
				field.References = &Reference{
					Table:    yfld.References.Table,
					Field:    yfld.References.Field,
					OnDelete: ReferentialAction(yfld.References.OnDelete),
					OnUpdate: ReferentialAction(yfld.References.OnUpdate),
				}
			}
			table.Fields = append(table.Fields, field)
		}
		tables = append(tables, table)
	}

	return tables, nil
}

// DumpYAML renders a declared schema back to the schema.yaml shape, the
// inverse of LoadYAML. Useful for `relsync init` style scaffolding.
func DumpYAML(tables []Table) ([]byte, error) {
	yf := yamlFile{}
	for _, t := range tables {
		yt := yamlTable{Name: t.Name}
		for _, f := range t.Fields {
			yfld := yamlField{
				Name:     f.Name,
				Type:     string(f.Type),
				Nullable: f.Nullable,
				Unique:   f.Unique,
				Default:  f.DefaultValue,
				Primary:  f.PrimaryKey,
				OneOf:    f.OneOf,
				Index:    string(f.Index),
			}
			if f.References != nil {
				yfld.References = &yamlReference{
					Table:    f.References.Table,
					Field:    f.References.Field,
					OnDelete: string(f.References.OnDelete),
					OnUpdate: string(f.References.OnUpdate),
				}
			}
			yt.Fields = append(yt.Fields, yfld)
		}
		yf.Tables = append(yf.Tables, yt)
	}

	return yaml.Marshal(yf)
}
