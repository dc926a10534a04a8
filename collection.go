package spot

import (
	"encoding/json"
	"fmt"
)

// Record is one hydrated row, keyed by field name.
type Record map[string]any

// ResultMethod is a method exposed by a result set to query dispatch.
type ResultMethod func(args ...any) (any, error)

// ResultSet is a materialized query result.
type ResultSet interface {
	Len() int
	// At returns the row at index i, or false when i is out of range.
	At(i int) (Record, bool)
	// Set replaces the row at i, or appends when i == Len().
	Set(i int, rec Record) bool
	Records() []Record
	// Method returns a named method for dispatch.
	Method(name string) (ResultMethod, bool)
}

// Collection is the default ResultSet.
type Collection struct {
	records    []Record
	primaryKey string
}

// NewCollection wraps records. primaryKey names the field Identities reads.
func NewCollection(records []Record, primaryKey string) *Collection {
	if records == nil {
		records = []Record{}
	}
	return &Collection{records: records, primaryKey: primaryKey}
}

// Len returns the number of rows.
func (c *Collection) Len() int { return len(c.records) }

// At returns the row at index i.
func (c *Collection) At(i int) (Record, bool) {
	if i < 0 || i >= len(c.records) {
		return nil, false
	}
	return c.records[i], true
}

// Set replaces the row at index i or appends it when i == Len().
func (c *Collection) Set(i int, rec Record) bool {
	switch {
	case i >= 0 && i < len(c.records):
		c.records[i] = rec
	case i == len(c.records):
		c.records = append(c.records, rec)
	default:
		return false
	}
	return true
}

// Records returns the rows.
func (c *Collection) Records() []Record { return c.records }

// First returns the first row.
func (c *Collection) First() (Record, bool) { return c.At(0) }

// Last returns the last row.
func (c *Collection) Last() (Record, bool) { return c.At(len(c.records) - 1) }

// Identities returns the primary key value of every row.
func (c *Collection) Identities() []any {
	ids := make([]any, 0, len(c.records))
	if c.primaryKey == "" {
		return ids
	}
	for _, rec := range c.records {
		if id, ok := rec[c.primaryKey]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Filter returns the rows keep accepts.
func (c *Collection) Filter(keep func(Record) bool) *Collection {
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return NewCollection(out, c.primaryKey)
}

// Map applies fn to every row.
func (c *Collection) Map(fn func(Record) any) []any {
	out := make([]any, len(c.records))
	for i, rec := range c.records {
		out[i] = fn(rec)
	}
	return out
}

// MarshalJSON encodes the rows as an array.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.records)
}

// Method exposes first, last, len, toArray, identities, filter and map.
func (c *Collection) Method(name string) (ResultMethod, bool) {
	switch name {
	case "first":
		return func(...any) (any, error) { return optional(c.First()), nil }, true
	case "last":
		return func(...any) (any, error) { return optional(c.Last()), nil }, true
	case "len":
		return func(...any) (any, error) { return c.Len(), nil }, true
	case "toArray":
		return func(...any) (any, error) { return c.Records(), nil }, true
	case "identities":
		return func(...any) (any, error) { return c.Identities(), nil }, true
	case "filter":
		return func(args ...any) (any, error) {
			keep, err := callbackArg[func(Record) bool]("filter", args)
			if err != nil {
				return nil, err
			}
			return c.Filter(keep), nil
		}, true
	case "map":
		return func(args ...any) (any, error) {
			fn, err := callbackArg[func(Record) any]("map", args)
			if err != nil {
				return nil, err
			}
			return c.Map(fn), nil
		}, true
	default:
		return nil, false
	}
}

func optional(rec Record, ok bool) any {
	if !ok {
		return nil
	}
	return rec
}

func callbackArg[F any](method string, args []any) (F, error) {
	var zero F
	if len(args) != 1 {
		return zero, fmt.Errorf("%w: %s takes 1 argument, got %d", ErrInvalidArgument, method, len(args))
	}
	fn, ok := args[0].(F)
	if !ok {
		return zero, fmt.Errorf("%w: %s argument is %T, want %T", ErrInvalidArgument, method, args[0], zero)
	}
	return fn, nil
}
