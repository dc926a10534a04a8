package spot

import (
	"fmt"
	"time"
)

// Stored formats for time values, by field type.
const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	datetimeLayout = "2006-01-02 15:04:05"
)

// ConvertValues converts time values, keyed by field name, to the form the
// field type stores: "2006-01-02" for date, "15:04:05" for time, Unix seconds
// for timestamp and integer, and "2006-01-02 15:04:05" otherwise. Other values
// pass through unchanged.
func ConvertValues(fields Fields, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, value := range values {
		f, _ := fields.ByName(name)
		converted, err := toDatabaseValue(f.Type, value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = converted
	}
	return out, nil
}

func toDatabaseValue(typ string, value any) (any, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t = *v
	default:
		return value, nil
	}

	switch typ {
	case TypeDate:
		return t.Format(dateLayout), nil
	case TypeTime:
		return t.Format(timeLayout), nil
	case TypeTimestamp, TypeInteger:
		return t.Unix(), nil
	case TypeString, TypeText, TypeDatetime, "":
		return t.Format(datetimeLayout), nil
	default:
		return nil, fmt.Errorf("%w: %s field cannot store a time value", ErrInvalidValue, typ)
	}
}

// hydrate turns a scanned row into a Record keyed by field name. Columns
// without a declared field keep their column name. Byte slices become strings.
func hydrate(fields Fields, row map[string]any) Record {
	rec := make(Record, len(row))
	for column, value := range row {
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		name := column
		if f, ok := fields.ByColumn(column); ok {
			name = f.Name
		}
		rec[name] = value
	}
	return rec
}
