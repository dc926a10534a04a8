// Package spot builds SQL queries from ordered condition maps.
//
// Conditions are "field[ operator]" keys with values. The field is resolved
// through entity metadata to a table qualified column, the operator is looked
// up in an extensible registry, and values are always bound as parameters.
// Nothing runs until a terminal accessor such as Execute, Count or First is
// called.
//
// # Quick Start
//
// Describe an entity and open a connection:
//
//	post := &spot.Entity{
//	    Name:    "post",
//	    Table:   "posts",
//	    Options: map[string]string{spot.OptionEngine: "MyISAM"},
//	    Fields: []spot.Field{
//	        {Name: "id", Type: spot.TypeInteger, Primary: true},
//	        {Name: "title", Type: spot.TypeString, Fulltext: true},
//	        {Name: "created", Column: "date_created", Type: spot.TypeDatetime},
//	    },
//	}
//
//	conn, err := spot.Open(ctx, "mysql", dsn)
//	mapper, err := spot.NewMapper(post, conn)
//
// Build and run queries through a Factory:
//
//	factory := spot.NewFactory()
//	rows, err := factory.Query(mapper).
//	    Where(spot.Cond("status", "published", "created <=", time.Now())).
//	    Order(spot.Desc("created")).
//	    Limit(10).
//	    ToArray(ctx)
//
// Add operators and methods:
//
//	factory.Operators().Register(":starts", func(b *spot.Binder, col string, v any) (string, error) {
//	    return col + " LIKE " + b.Bind(fmt.Sprint(v)+"%"), nil
//	})
//	factory.Extensions().Register("recent", func(q *spot.Query, _ ...any) (any, error) {
//	    return q.Order(spot.Desc("created")), nil
//	})
package spot

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Factory creates Queries that share one operator registry and one extension
// registry. Create it once and pass it to the code that builds queries.
type Factory struct {
	operators  *OperatorRegistry
	extensions *ExtensionRegistry
}

// Option configures a Factory.
type Option func(*Factory)

// WithOperators shares an existing operator registry.
func WithOperators(r *OperatorRegistry) Option {
	return func(f *Factory) {
		f.operators = r
	}
}

// WithExtensions shares an existing extension registry.
func WithExtensions(r *ExtensionRegistry) Option {
	return func(f *Factory) {
		f.extensions = r
	}
}

// NewFactory creates a Factory. Registries not supplied by options are
// created empty, with the operator registry seeded with the built-ins.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.operators == nil {
		f.operators = NewOperatorRegistry()
	}
	if f.extensions == nil {
		f.extensions = NewExtensionRegistry()
	}

	capitan.Emit(context.Background(), FactoryCreated)

	return f
}

// Operators returns the operator registry.
func (f *Factory) Operators() *OperatorRegistry { return f.operators }

// Extensions returns the extension registry.
func (f *Factory) Extensions() *ExtensionRegistry { return f.extensions }

// Query starts a query on the mapper's entity.
func (f *Factory) Query(m Mapper) *Query {
	return newQuery(m, f.operators, f.extensions)
}

// Render builds a query with build and returns its SQL and arguments.
func (f *Factory) Render(m Mapper, build func(*Query) *Query) (string, []any, error) {
	q := f.Query(m)
	if build != nil {
		q = build(q)
	}
	return q.ToSQL()
}
