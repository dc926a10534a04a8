package spot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Condition is one entry of a condition map: a key of the form
// "field[ operator]" and the value it is compared against.
type Condition struct {
	Key   string
	Value any
}

// Conditions is an ordered condition map.
//
// Keys are "field" (equality) or "field operator", for example:
//
//	spot.Cond(
//	    "status", "published",
//	    "date_created <=", time.Now(),
//	    "title :like", "%go%",
//	)
//
// Conditions decode from JSON objects and YAML mappings with key order preserved.
type Conditions []Condition

// Cond builds Conditions from alternating keys and values.
// It panics if the arguments are not key/value pairs with string keys, so it
// suits literal call sites. Conditions built from dynamic input should use a
// Conditions{...} literal or Conditions.Add instead.
func Cond(pairs ...any) Conditions {
	if len(pairs)%2 != 0 {
		panic("spot: Cond requires key/value pairs")
	}
	c := make(Conditions, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("spot: Cond key at position %d is %T, not string", i, pairs[i]))
		}
		c = append(c, Condition{Key: key, Value: pairs[i+1]})
	}
	return c
}

// Add appends a condition and returns the extended map.
func (c Conditions) Add(key string, value any) Conditions {
	return append(c, Condition{Key: key, Value: value})
}

// MarshalJSON encodes the conditions as a JSON object in order.
func (c Conditions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cond := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cond.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", cond.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
// Integral numbers decode as int64, other numbers as float64.
func (c *Conditions) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("conditions must be a JSON object")
	}

	out := Conditions{}
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return fmt.Errorf("condition %q: %w", key, err)
		}
		value, err := decodeJSONValue(raw)
		if err != nil {
			return fmt.Errorf("condition %q: %w", key, err)
		}
		out = append(out, Condition{Key: key, Value: value})
	}
	*c = out
	return nil
}

func decodeJSONValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var nested Conditions
		if err := nested.UnmarshalJSON(trimmed); err != nil {
			return nil, err
		}
		return nested, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeJSONNumbers(v), nil
}

func normalizeJSONNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeJSONNumbers(t[i])
		}
		return t
	default:
		return v
	}
}

// UnmarshalYAML decodes a YAML mapping, keeping key order.
func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: conditions must be a mapping", node.Line)
	}
	out := make(Conditions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var value any
		if valueNode.Kind == yaml.MappingNode {
			var nested Conditions
			if err := nested.UnmarshalYAML(valueNode); err != nil {
				return err
			}
			value = nested
		} else if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("condition %q: %w", keyNode.Value, err)
		}
		out = append(out, Condition{Key: keyNode.Value, Value: value})
	}
	*c = out
	return nil
}

// Joiner combines the fragments of one condition map.
type Joiner string

// Joiners.
const (
	And Joiner = "AND"
	Or  Joiner = "OR"
)

func resolveJoiner(joiner []Joiner) (Joiner, error) {
	if len(joiner) == 0 || joiner[0] == "" {
		return And, nil
	}
	switch j := Joiner(strings.ToUpper(string(joiner[0]))); j {
	case And, Or:
		return j, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidJoiner, joiner[0])
	}
}

// Fragment is a rendered boolean SQL expression with "?" placeholders and
// the arguments bound to them, in order.
type Fragment struct {
	SQL  string
	Args []any
}

// joinFragments joins fragments with " AND " or " OR ".
func joinFragments(frags []Fragment, joiner Joiner) Fragment {
	parts := make([]string, len(frags))
	var args []any
	for i, f := range frags {
		parts[i] = f.SQL
		args = append(args, f.Args...)
	}
	return Fragment{
		SQL:  strings.Join(parts, " "+string(joiner)+" "),
		Args: args,
	}
}

// splitConditionKey splits "field operator" into its parts. With more than
// two tokens the last one is the operator and the rest is the field.
func splitConditionKey(key string) (field, operator string) {
	parts := strings.Fields(key)
	switch len(parts) {
	case 0:
		return "", "="
	case 1:
		return parts[0], "="
	case 2:
		return parts[0], parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// ParseConditions turns a condition map into SQL fragments, one per entry.
// With useAlias the field is resolved through FieldWithAlias; without it
// (HAVING) the field is used literally. Nothing is appended to the query.
func (q *Query) ParseConditions(conds Conditions, useAlias bool) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(conds))
	for _, cond := range conds {
		field, token := splitConditionKey(cond.Key)
		if field == "" {
			return nil, fmt.Errorf("condition %q has no field", cond.Key)
		}

		op, ok := q.operators.Resolve(token)
		if !ok {
			return nil, &UnsupportedOperatorError{Operator: token}
		}

		value := cond.Value
		if _, nested := value.(Conditions); nested {
			return nil, &DeprecatedUsageError{
				Usage:       fmt.Sprintf("nested condition map under %q", cond.Key),
				Replacement: "use OrWhere or a second Where call to group conditions",
			}
		}

		if isTimeValue(value) {
			converted, err := q.mapper.ConvertToDatabaseValues(map[string]any{field: value})
			if err != nil {
				return nil, fmt.Errorf("convert %q: %w", field, err)
			}
			value = converted[field]
		}

		column := field
		if useAlias {
			column = q.FieldWithAlias(field)
		}

		binder := newBinder(q.platform())
		sql, err := op.Apply(binder, column, value)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, Fragment{SQL: sql, Args: binder.args})
	}
	return fragments, nil
}

func isTimeValue(v any) bool {
	switch v.(type) {
	case time.Time, *time.Time:
		return true
	default:
		return false
	}
}
