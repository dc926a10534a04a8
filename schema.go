package spot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Field types understood by value conversion.
const (
	TypeString    = "string"
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeBoolean   = "boolean"
	TypeDate      = "date"
	TypeTime      = "time"
	TypeDatetime  = "datetime"
	TypeTimestamp = "timestamp"
)

// OptionEngine is the datasource option naming the table's storage engine.
const OptionEngine = "engine"

// Field describes one logical field of an entity.
type Field struct {
	Name     string `yaml:"name" json:"name"`
	Column   string `yaml:"column,omitempty" json:"column,omitempty"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Fulltext bool   `yaml:"fulltext,omitempty" json:"fulltext,omitempty"`
	Primary  bool   `yaml:"primary,omitempty" json:"primary,omitempty"`
}

// ColumnName returns the physical column, defaulting to the field name.
func (f Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Fields is an entity's field list in declaration order.
type Fields []Field

// ByName returns the field with the given logical name.
func (fs Fields) ByName(name string) (Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ByColumn returns the field stored in the given column.
func (fs Fields) ByColumn(column string) (Field, bool) {
	for _, f := range fs {
		if f.ColumnName() == column {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the primary key field name, or "" if none is declared.
func (fs Fields) PrimaryKey() string {
	for _, f := range fs {
		if f.Primary {
			return f.Name
		}
	}
	return ""
}

// Entity is the metadata of one record type: its table, ordered fields,
// datasource options and declared scopes.
//
// Example YAML:
//
//	name: post
//	table: posts
//	options:
//	  engine: MyISAM
//	fields:
//	  - {name: id, type: integer, primary: true}
//	  - {name: title, type: string, fulltext: true}
//	  - {name: created, column: date_created, type: datetime}
//	scopes:
//	  published:
//	    status: published
type Entity struct {
	Name    string                `yaml:"name"`
	Table   string                `yaml:"table"`
	Fields  Fields                `yaml:"fields"`
	Options map[string]string     `yaml:"options,omitempty"`
	Scopes  map[string]Conditions `yaml:"scopes,omitempty"`
}

// Validate checks that the entity is usable for query building.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return errors.New("entity name is required")
	}
	if e.Table == "" {
		return fmt.Errorf("entity %q: table name is required", e.Name)
	}
	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if f.Name == "" {
			return fmt.Errorf("entity %q: field without a name", e.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("entity %q: duplicate field %q", e.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Schema is a set of entity definitions loaded from configuration.
type Schema struct {
	Entities []*Entity `yaml:"entities"`
}

// LoadSchema decodes a YAML schema. Unknown keys are rejected.
func LoadSchema(r io.Reader) (*Schema, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var s Schema
	if err := decoder.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("spot: empty schema")
		}
		return nil, fmt.Errorf("spot: decode schema: %w", err)
	}
	for _, e := range s.Entities {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("spot: %w", err)
		}
	}
	return &s, nil
}

// LoadSchemaFile reads and decodes a YAML schema file.
func LoadSchemaFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spot: open schema: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadSchema(f)
}

// Entity returns the entity with the given name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	for _, e := range s.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}
