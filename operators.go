package spot

import (
	"fmt"
	"reflect"
)

// listValue reports whether v is a slice or array (strings and []byte excluded)
// and returns its elements.
func listValue(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// equalsOperator: "=" with IN for lists and IS NULL for nil or empty lists.
type equalsOperator struct{}

func (equalsOperator) Apply(b *Binder, column string, value any) (string, error) {
	if list, ok := listValue(value); ok {
		if len(list) == 0 {
			return column + " IS NULL", nil
		}
		return column + " IN (" + b.BindList(list) + ")", nil
	}
	if isNil(value) {
		return column + " IS NULL", nil
	}
	return column + " = " + b.Bind(value), nil
}

// notOperator: "!=" with NOT IN for lists and IS NOT NULL for nil or empty lists.
type notOperator struct{}

func (notOperator) Apply(b *Binder, column string, value any) (string, error) {
	if list, ok := listValue(value); ok {
		if len(list) == 0 {
			return column + " IS NOT NULL", nil
		}
		return column + " NOT IN (" + b.BindList(list) + ")", nil
	}
	if isNil(value) {
		return column + " IS NOT NULL", nil
	}
	return column + " != " + b.Bind(value), nil
}

type comparisonOperator struct {
	symbol string
}

func (o comparisonOperator) Apply(b *Binder, column string, value any) (string, error) {
	return column + " " + o.symbol + " " + b.Bind(value), nil
}

type regexpOperator struct{}

func (regexpOperator) Apply(b *Binder, column string, value any) (string, error) {
	op := "REGEXP"
	if b.Platform() != nil {
		op = b.Platform().RegexOperator()
	}
	return column + " " + op + " " + b.Bind(value), nil
}

type likeOperator struct{}

func (likeOperator) Apply(b *Binder, column string, value any) (string, error) {
	return column + " LIKE " + b.Bind(value), nil
}

type fullTextOperator struct {
	boolean bool
}

func (o fullTextOperator) Apply(b *Binder, column string, value any) (string, error) {
	if o.boolean {
		return "MATCH(" + column + ") AGAINST (" + b.Bind(value) + " IN BOOLEAN MODE)", nil
	}
	return "MATCH(" + column + ") AGAINST (" + b.Bind(value) + ")", nil
}

type inOperator struct{}

func (inOperator) Apply(b *Binder, column string, value any) (string, error) {
	list, ok := listValue(value)
	if !ok {
		return "", &InvalidValueError{
			Operator: "IN",
			Column:   column,
			Reason:   fmt.Sprintf("expects a slice value, got %T", value),
		}
	}
	if len(list) == 0 {
		return "", &InvalidValueError{Operator: "IN", Column: column, Reason: "empty value list"}
	}
	return column + " IN (" + b.BindList(list) + ")", nil
}
