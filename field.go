package spot

import "strings"

// FieldWithAlias resolves a logical field name to a table qualified, escaped
// column reference.
//
// A field wrapped in a function call, such as "COUNT(id)" or "LOWER(title)",
// keeps the call and has only the field inside it resolved. When no declared
// field appears inside the call the expression is returned unchanged.
func (q *Query) FieldWithAlias(field string) string {
	field = strings.TrimSpace(field)

	if strings.Index(field, "(") > 0 {
		prefix, name, suffix, ok := q.splitFunction(field)
		if !ok {
			return field
		}
		return prefix + q.qualify(name) + suffix
	}
	return q.qualify(field)
}

// qualify maps a logical name to its column and prefixes the table.
func (q *Query) qualify(field string) string {
	name := Unquote(q.platform(), field)
	if f, ok := q.mapper.Fields().ByName(name); ok {
		name = f.ColumnName()
	}
	return q.EscapeIdentifier(q.table + "." + name)
}

// splitFunction finds the first declared field inside a function expression.
// Fields are tried in declaration order and must match on identifier
// boundaries, so "name" is not found inside "username".
func (q *Query) splitFunction(expr string) (prefix, name, suffix string, ok bool) {
	for _, f := range q.mapper.Fields() {
		i := indexIdentifier(expr, f.Name)
		if i <= 0 {
			continue
		}
		return expr[:i], f.Name, expr[i+len(f.Name):], true
	}
	return "", "", "", false
}

func indexIdentifier(s, name string) int {
	if name == "" {
		return -1
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], name)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(name)
		if (i == 0 || !isIdentByte(s[i-1])) && (end == len(s) || !isIdentByte(s[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// EscapeIdentifier quotes an identifier with the connection's platform rules.
// Identifiers containing a space or "(" are treated as expressions and passed
// through. Nothing is quoted when quoting is disabled with NoQuote.
func (q *Query) EscapeIdentifier(identifier string) string {
	if q.noQuote {
		return identifier
	}
	if strings.ContainsAny(identifier, " (") {
		return identifier
	}
	return q.platform().QuoteIdentifier(strings.TrimSpace(identifier))
}

// Escape quotes a string literal with the connection's platform rules.
func (q *Query) Escape(value string) string {
	if q.noQuote {
		return value
	}
	return q.platform().QuoteString(value)
}
