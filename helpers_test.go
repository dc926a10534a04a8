package spot

import (
	"context"
	"fmt"
	"testing"
)

// testPost is the entity used across the package tests.
func testPost() *Entity {
	return &Entity{
		Name:  "post",
		Table: "posts",
		Fields: []Field{
			{Name: "id", Type: TypeInteger, Primary: true},
			{Name: "title", Type: TypeString, Fulltext: true},
			{Name: "body", Type: TypeText, Fulltext: true},
			{Name: "status", Type: TypeString},
			{Name: "author", Column: "author_id", Type: TypeInteger},
			{Name: "created", Column: "date_created", Type: TypeDatetime},
			{Name: "published_on", Type: TypeDate},
			{Name: "views", Type: TypeInteger},
		},
	}
}

func newTestMapper(t *testing.T, p Platform, options map[string]string, opts ...MapperOption) *EntityMapper {
	t.Helper()
	e := testPost()
	e.Options = options
	m, err := NewMapper(e, NewConnection(nil, p), opts...)
	if err != nil {
		t.Fatalf("NewMapper() failed: %v", err)
	}
	return m
}

func newTestQuery(t *testing.T, p Platform) *Query {
	t.Helper()
	return NewFactory().Query(newTestMapper(t, p, nil))
}

func render(t *testing.T, q *Query) (string, string) {
	t.Helper()
	sql, args, err := q.ToSQL()
	if err != nil {
		t.Fatalf("ToSQL() failed: %v", err)
	}
	return sql, fmt.Sprint(args)
}

// staticResolver returns fixed rows and counts calls.
type staticResolver struct {
	records []Record
	err     error
	calls   int
}

func (r *staticResolver) Read(_ context.Context, _ *Query) (ResultSet, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	rows := make([]Record, len(r.records))
	copy(rows, r.records)
	return NewCollection(rows, "id"), nil
}
