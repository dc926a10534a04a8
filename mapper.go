package spot

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// QueryFunc is a custom query method or scope. It receives the query it was
// called on, followed by the caller's arguments.
type QueryFunc func(q *Query, args ...any) (any, error)

// Resolver executes a finished query and returns its rows.
type Resolver interface {
	Read(ctx context.Context, q *Query) (ResultSet, error)
}

// Mapper supplies entity metadata and collaborators to a Query.
type Mapper interface {
	EntityName() string
	TableName() string
	// Fields returns field metadata in declaration order.
	Fields() Fields
	DatasourceOptions() map[string]string
	Connection() *Connection
	// ConvertToDatabaseValues converts value objects, keyed by field name,
	// into their stored representation.
	ConvertToDatabaseValues(values map[string]any) (map[string]any, error)
	Resolver() Resolver
	Scopes() map[string]QueryFunc
}

// EntityMapper is a Mapper backed by an Entity definition.
type EntityMapper struct {
	entity   *Entity
	conn     *Connection
	resolver Resolver
	scopes   map[string]QueryFunc
}

// MapperOption configures an EntityMapper.
type MapperOption func(*EntityMapper)

// WithResolver replaces the default SQLResolver.
func WithResolver(r Resolver) MapperOption {
	return func(m *EntityMapper) {
		m.resolver = r
	}
}

// WithScope adds a named scope, replacing a scope of the same name declared
// on the entity.
func WithScope(name string, fn QueryFunc) MapperOption {
	return func(m *EntityMapper) {
		m.scopes[name] = fn
	}
}

// NewMapper creates a mapper for entity on conn. Scopes declared on the
// entity become scopes that add their conditions with Where.
func NewMapper(entity *Entity, conn *Connection, opts ...MapperOption) (*EntityMapper, error) {
	if entity == nil {
		return nil, errors.New("spot: nil entity")
	}
	if err := entity.Validate(); err != nil {
		return nil, fmt.Errorf("spot: %w", err)
	}
	if conn == nil || conn.Platform() == nil {
		return nil, fmt.Errorf("spot: entity %q: %w", entity.Name, ErrNoConnection)
	}

	m := &EntityMapper{
		entity:   entity,
		conn:     conn,
		resolver: NewSQLResolver(),
		scopes:   make(map[string]QueryFunc, len(entity.Scopes)),
	}
	for name, conds := range entity.Scopes {
		m.scopes[name] = whereScope(conds)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func whereScope(conds Conditions) QueryFunc {
	return func(q *Query, _ ...any) (any, error) {
		q.Where(conds)
		return q, q.Err()
	}
}

// Entity returns the entity definition.
func (m *EntityMapper) Entity() *Entity { return m.entity }

// EntityName returns the entity name.
func (m *EntityMapper) EntityName() string { return m.entity.Name }

// TableName returns the entity's table.
func (m *EntityMapper) TableName() string { return m.entity.Table }

// Fields returns the entity's fields.
func (m *EntityMapper) Fields() Fields { return m.entity.Fields }

// DatasourceOptions returns the entity's datasource options.
func (m *EntityMapper) DatasourceOptions() map[string]string {
	if m.entity.Options == nil {
		return map[string]string{}
	}
	return m.entity.Options
}

// Connection returns the connection.
func (m *EntityMapper) Connection() *Connection { return m.conn }

// ConvertToDatabaseValues converts values with ConvertValues.
func (m *EntityMapper) ConvertToDatabaseValues(values map[string]any) (map[string]any, error) {
	return ConvertValues(m.entity.Fields, values)
}

// Resolver returns the resolver.
func (m *EntityMapper) Resolver() Resolver { return m.resolver }

// Scopes returns a copy of the mapper's scopes.
func (m *EntityMapper) Scopes() map[string]QueryFunc {
	return maps.Clone(m.scopes)
}
