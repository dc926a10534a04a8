package spot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zoobzio/capitan"
)

// Query builds a SELECT against one entity's table.
//
// Mutators return the Query for chaining. The first build error is kept and
// later mutators become no-ops; Err reports it and every terminal accessor
// (ToSQL, Count, Execute, First, ...) returns it.
//
// A Query is owned by one goroutine. Nothing is executed until a terminal
// accessor is called, and every call runs the query again.
type Query struct {
	mapper     Mapper
	operators  *OperatorRegistry
	extensions *ExtensionRegistry

	entity string
	table  string

	ds       *goqu.SelectDataset
	selected bool
	groups   []any
	limited  bool
	with     map[string]struct{}
	noQuote  bool

	// materialized backs GetAt and SetAt; mutators drop it.
	materialized ResultSet

	err error
}

func newQuery(m Mapper, operators *OperatorRegistry, extensions *ExtensionRegistry) *Query {
	q := &Query{
		mapper:     m,
		operators:  operators,
		extensions: extensions,
		entity:     m.EntityName(),
		table:      m.TableName(),
		with:       make(map[string]struct{}),
	}
	q.ds = goqu.Dialect(q.platform().Dialect()).
		From(goqu.T(q.table)).
		Prepared(true)
	return q
}

// platform returns the connection platform, MySQL when the mapper has none.
func (q *Query) platform() Platform {
	if conn := q.mapper.Connection(); conn != nil && conn.Platform() != nil {
		return conn.Platform()
	}
	return MySQL()
}

func (q *Query) set(ds *goqu.SelectDataset) {
	q.ds = ds
	q.materialized = nil
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Err returns the first error recorded while building the query.
func (q *Query) Err() error { return q.err }

// EntityName returns the entity this query reads.
func (q *Query) EntityName() string { return q.entity }

// TableName returns the table this query reads.
func (q *Query) TableName() string { return q.table }

// Mapper returns the mapper the query was created for.
func (q *Query) Mapper() Mapper { return q.mapper }

// Where adds a condition group, ANDed with what is already there. Entries of
// the group are joined with joiner, AND by default.
//
//	q.Where(spot.Cond("status", "published", "date_created <=", time.Now()))
//	q.Where(spot.Cond("title :like", "%go%", "body :like", "%go%"), spot.Or)
func (q *Query) Where(conds Conditions, joiner ...Joiner) *Query {
	return q.addWhere(conds, joiner, And)
}

// OrWhere adds a condition group, ORed with what is already there.
func (q *Query) OrWhere(conds Conditions, joiner ...Joiner) *Query {
	return q.addWhere(conds, joiner, Or)
}

func (q *Query) addWhere(conds Conditions, joiner []Joiner, link Joiner) *Query {
	if q.err != nil || len(conds) == 0 {
		return q
	}
	j, err := resolveJoiner(joiner)
	if err != nil {
		return q.fail(err)
	}
	fragments, err := q.ParseConditions(conds, true)
	if err != nil {
		return q.fail(err)
	}
	q.appendWhere(groupExpression(fragments, j), link)
	return q
}

// groupExpression renders fragments as one literal. Groups of more than one
// fragment are parenthesized so they combine safely with other groups.
func groupExpression(fragments []Fragment, joiner Joiner) exp.LiteralExpression {
	group := joinFragments(fragments, joiner)
	if len(fragments) > 1 {
		group.SQL = "(" + group.SQL + ")"
	}
	return goqu.L(group.SQL, group.Args...)
}

func (q *Query) appendWhere(e exp.Expression, link Joiner) {
	prev := q.ds.GetClauses().Where()
	if link == Or && prev != nil && !prev.IsEmpty() {
		q.set(q.ds.ClearWhere().Where(goqu.Or(prev, e)))
		return
	}
	q.set(q.ds.Where(e))
}

// WhereFieldSQL adds "field sql" to the WHERE clause with each "?" in sql
// bound to the next param. The field is resolved like any other condition
// field. It fails with *ParameterMismatchError when the number of
// placeholders differs from the number of params.
//
//	q.WhereFieldSQL("age", "BETWEEN ? AND ?", 18, 30)
func (q *Query) WhereFieldSQL(field, sql string, params ...any) *Query {
	if q.err != nil {
		return q
	}
	placeholders := strings.Count(sql, "?")
	if placeholders != len(params) {
		return q.fail(&ParameterMismatchError{Placeholders: placeholders, Params: len(params)})
	}
	q.appendWhere(goqu.L(q.FieldWithAlias(field)+" "+sql, params...), And)
	return q
}

// WhereSQL adds a complete boolean expression to the WHERE clause verbatim.
// The caller is responsible for its safety.
func (q *Query) WhereSQL(sql string) *Query {
	if q.err != nil || strings.TrimSpace(sql) == "" {
		return q
	}
	q.appendWhere(goqu.L(sql), And)
	return q
}

// SearchOptions tunes Search.
type SearchOptions struct {
	// Boolean selects fulltext boolean mode when fulltext search applies.
	Boolean bool
}

// Search adds a text search over fields.
//
// It uses LIKE unless the connection is MySQL and the entity's engine
// datasource option is MyISAM, in which case it uses MATCH ... AGAINST, in
// boolean mode when opts.Boolean is set. Several fields are searched as one
// MATCH column list; they are not split into per-field conditions.
func (q *Query) Search(fields []string, term string, opts ...SearchOptions) *Query {
	if q.err != nil || len(fields) == 0 {
		return q
	}
	var opt SearchOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	token := ":like"
	if q.fulltextEligible() {
		token = ":fulltext"
		if opt.Boolean {
			token = ":fulltext_boolean"
		}
		q.reportNonFulltext(fields)
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "`" + f + "`"
	}
	return q.Where(Conditions{{Key: strings.Join(quoted, ", ") + " " + token, Value: term}})
}

func (q *Query) fulltextEligible() bool {
	if q.platform().Family() != FamilyMySQL {
		return false
	}
	engine := q.mapper.DatasourceOptions()[OptionEngine]
	return strings.EqualFold(strings.TrimSpace(engine), "myisam")
}

func (q *Query) reportNonFulltext(fields []string) {
	for _, name := range fields {
		if f, ok := q.mapper.Fields().ByName(name); ok && f.Fulltext {
			continue
		}
		capitan.Emit(context.Background(), SearchFulltextIneligible,
			KeyEntity.Field(q.entity),
			KeyField.Field(name))
	}
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Sort orders by one field. An empty Direction sorts ascending.
type Sort struct {
	Field     string
	Direction Direction
}

// Asc sorts field ascending.
func Asc(field string) Sort { return Sort{Field: field, Direction: Ascending} }

// Desc sorts field descending.
func Desc(field string) Sort { return Sort{Field: field, Direction: Descending} }

// Order appends ORDER BY terms. Fields are resolved with FieldWithAlias.
func (q *Query) Order(sorts ...Sort) *Query {
	if q.err != nil || len(sorts) == 0 {
		return q
	}
	terms := make([]exp.OrderedExpression, 0, len(sorts))
	for _, s := range sorts {
		col := goqu.L(q.FieldWithAlias(s.Field))
		switch Direction(strings.ToUpper(strings.TrimSpace(string(s.Direction)))) {
		case "", Ascending:
			terms = append(terms, col.Asc())
		case Descending:
			terms = append(terms, col.Desc())
		default:
			return q.fail(fmt.Errorf("%w: %q for field %q", ErrInvalidDirection, s.Direction, s.Field))
		}
	}
	q.set(q.ds.OrderAppend(terms...))
	return q
}

// Group appends GROUP BY fields, resolved with FieldWithAlias.
func (q *Query) Group(fields ...string) *Query {
	if q.err != nil || len(fields) == 0 {
		return q
	}
	for _, f := range fields {
		q.groups = append(q.groups, goqu.L(q.FieldWithAlias(f)))
	}
	q.set(q.ds.GroupBy(q.groups...))
	return q
}

// Having adds a HAVING condition group. Fields are used literally since
// HAVING refers to selected expressions rather than columns.
func (q *Query) Having(conds Conditions, joiner ...Joiner) *Query {
	if q.err != nil || len(conds) == 0 {
		return q
	}
	j, err := resolveJoiner(joiner)
	if err != nil {
		return q.fail(err)
	}
	fragments, err := q.ParseConditions(conds, false)
	if err != nil {
		return q.fail(err)
	}
	q.set(q.ds.Having(groupExpression(fragments, j)))
	return q
}

// Select replaces the projection. Fields are resolved with FieldWithAlias.
// Without a call to Select the query selects "table.*".
func (q *Query) Select(fields ...string) *Query {
	if q.err != nil || len(fields) == 0 {
		return q
	}
	cols := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = goqu.L(q.FieldWithAlias(f))
	}
	q.selected = true
	q.set(q.ds.Select(cols...))
	return q
}

// With marks relations for eager loading. Duplicates collapse.
func (q *Query) With(relations ...string) *Query {
	for _, r := range relations {
		if r = strings.TrimSpace(r); r != "" {
			q.with[r] = struct{}{}
		}
	}
	return q
}

// Relations returns the eager-load relation names, sorted.
func (q *Query) Relations() []string {
	out := make([]string, 0, len(q.with))
	for r := range q.with {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// NoQuote turns identifier and value quoting off or back on. Set it before
// adding clauses; clauses already added keep their quoting.
func (q *Query) NoQuote(noQuote bool) *Query {
	q.noQuote = noQuote
	return q
}

// Limit sets the row limit and, when given, the offset. The limit must be
// positive; leave Limit out to read every row.
func (q *Query) Limit(n int, offset ...int) *Query {
	if q.err != nil {
		return q
	}
	if n <= 0 {
		return q.fail(fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, n))
	}
	q.limited = true
	q.set(q.ds.Limit(uint(n)))
	if len(offset) > 0 {
		return q.Offset(offset[0])
	}
	return q
}

// Offset sets the row offset. Without a limit, platforms that need a LIMIT
// in front of OFFSET get their largest row count.
func (q *Query) Offset(n int) *Query {
	if q.err != nil {
		return q
	}
	if n < 0 {
		return q.fail(fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, n))
	}
	q.set(q.ds.Offset(uint(n)))
	return q
}

// Builder returns the goqu dataset as it will be rendered.
func (q *Query) Builder() *goqu.SelectDataset {
	return q.dataset()
}

func (q *Query) dataset() *goqu.SelectDataset {
	ds := q.ds
	if !q.selected {
		ds = ds.Select(goqu.L(q.EscapeIdentifier(q.table + ".*")))
	}
	if q.noQuote {
		ds = ds.From(goqu.L(q.table))
	}
	if !q.limited && ds.GetClauses().Offset() > 0 {
		if n, ok := unboundedLimit(q.platform()); ok {
			ds = ds.Limit(n)
		}
	}
	return ds
}

// ToSQL renders the query and its bound arguments in placeholder order.
func (q *Query) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	sql, args, err := q.dataset().ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("spot: render %s: %w", q.table, err)
	}
	return sql, args, nil
}
