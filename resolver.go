package spot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// SQLResolver runs queries on the mapper's connection and hydrates rows into
// Records keyed by field name.
type SQLResolver struct{}

// NewSQLResolver returns the default resolver.
func NewSQLResolver() *SQLResolver {
	return &SQLResolver{}
}

// Read renders q, runs it, and returns the rows as a Collection.
func (r *SQLResolver) Read(ctx context.Context, q *Query) (ResultSet, error) {
	db, err := q.Mapper().Connection().execer()
	if err != nil {
		return nil, fmt.Errorf("spot: read %s: %w", q.TableName(), err)
	}
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	id := uuid.Must(uuid.NewV7()).String()
	capitan.Debug(ctx, QueryStarted,
		KeyQueryID.Field(id),
		KeyEntity.Field(q.EntityName()),
		KeyTable.Field(q.TableName()),
		KeySQL.Field(query))

	start := time.Now()
	fail := func(err error) (ResultSet, error) {
		err = normalizeDriverError(err)
		capitan.Error(ctx, QueryFailed,
			KeyQueryID.Field(id),
			KeyTable.Field(q.TableName()),
			KeyError.Field(err.Error()))
		return nil, fmt.Errorf("spot: read %s: %w", q.TableName(), err)
	}

	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = rows.Close() }()

	fields := q.Mapper().Fields()
	var records []Record
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return fail(err)
		}
		records = append(records, hydrate(fields, row))
	}
	if err := rows.Err(); err != nil {
		return fail(err)
	}

	capitan.Info(ctx, QueryCompleted,
		KeyQueryID.Field(id),
		KeyTable.Field(q.TableName()),
		KeyDuration.Field(time.Since(start)))

	return NewCollection(records, fields.PrimaryKey()), nil
}
