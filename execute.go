package spot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zoobzio/capitan"
)

// Count runs a separate COUNT(*) query built from a copy of the current
// state with ORDER BY removed. The Query itself is not changed.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	db, err := q.mapper.Connection().execer()
	if err != nil {
		return 0, fmt.Errorf("spot: count %s: %w", q.table, err)
	}

	query, args, err := q.dataset().
		ClearOrder().
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("spot: render count %s: %w", q.table, err)
	}

	start := time.Now()
	var n int64
	if err := db.QueryRowxContext(ctx, query, args...).Scan(&n); err != nil && !errors.Is(err, sql.ErrNoRows) {
		err = normalizeDriverError(err)
		capitan.Error(ctx, QueryFailed,
			KeyTable.Field(q.table),
			KeySQL.Field(query),
			KeyError.Field(err.Error()))
		return 0, fmt.Errorf("spot: count %s: %w", q.table, err)
	}

	capitan.Info(ctx, CountCompleted,
		KeyTable.Field(q.table),
		KeySQL.Field(query),
		KeyDuration.Field(time.Since(start)))

	return n, nil
}

// Execute hands the query to the mapper's resolver and returns its results.
// Results are never cached; each call runs the query.
func (q *Query) Execute(ctx context.Context) (ResultSet, error) {
	if q.err != nil {
		return nil, q.err
	}
	resolver := q.mapper.Resolver()
	if resolver == nil {
		return nil, fmt.Errorf("spot: %s: %w", q.entity, ErrNoResolver)
	}
	return resolver.Read(ctx, q)
}

// First limits the query to one row and returns it. ok is false when no row
// matched; that is not an error.
func (q *Query) First(ctx context.Context) (rec Record, ok bool, err error) {
	rs, err := q.Limit(1).Execute(ctx)
	if err != nil {
		return nil, false, err
	}
	if rs == nil {
		return nil, false, nil
	}
	rec, ok = rs.At(0)
	return rec, ok, nil
}

// Iter executes the query and returns an iterator over the rows.
//
//	rows, err := q.Iter(ctx)
//	for i, rec := range rows { ... }
func (q *Query) Iter(ctx context.Context) (iter.Seq2[int, Record], error) {
	rs, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return func(yield func(int, Record) bool) {
		if rs == nil {
			return
		}
		for i, rec := range rs.Records() {
			if !yield(i, rec) {
				return
			}
		}
	}, nil
}

// ToArray executes the query and returns the rows.
func (q *Query) ToArray(ctx context.Context) ([]Record, error) {
	rs, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return []Record{}, nil
	}
	return rs.Records(), nil
}

// JSON executes the query and encodes the rows as a JSON array.
func (q *Query) JSON(ctx context.Context) ([]byte, error) {
	rows, err := q.ToArray(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rows)
}

// MarshalJSON executes the query with a background context.
func (q *Query) MarshalJSON() ([]byte, error) {
	return q.JSON(context.Background())
}

// GetAt returns the row at index i. The first call executes the query and
// later calls reuse that result until the query is changed.
func (q *Query) GetAt(ctx context.Context, i int) (Record, bool, error) {
	rs, err := q.results(ctx)
	if err != nil {
		return nil, false, err
	}
	rec, ok := rs.At(i)
	return rec, ok, nil
}

// SetAt replaces the row at index i of the materialized result, or appends
// it when i equals the number of rows.
func (q *Query) SetAt(ctx context.Context, i int, rec Record) error {
	rs, err := q.results(ctx)
	if err != nil {
		return err
	}
	if !rs.Set(i, rec) {
		return fmt.Errorf("spot: set %d of %d rows: %w", i, rs.Len(), ErrIndexOutOfRange)
	}
	return nil
}

func (q *Query) results(ctx context.Context) (ResultSet, error) {
	if q.materialized != nil {
		return q.materialized, nil
	}
	rs, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = NewCollection(nil, "")
	}
	q.materialized = rs
	return rs, nil
}
