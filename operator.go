package spot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
	"golang.org/x/text/cases"
)

// Operator builds one SQL fragment for a column and a value. Values must be
// bound through the Binder, never written into the SQL text.
//
// Operators registered by type are instantiated once and shared, so an
// implementation must not keep per-call state.
type Operator interface {
	Apply(b *Binder, column string, value any) (string, error)
}

// OperatorFunc adapts a function to Operator. A registered OperatorFunc is
// called directly on every use.
type OperatorFunc func(b *Binder, column string, value any) (string, error)

// Apply calls f.
func (f OperatorFunc) Apply(b *Binder, column string, value any) (string, error) {
	return f(b, column, value)
}

// Binder collects the arguments bound by an operator.
type Binder struct {
	platform Platform
	args     []any
}

func newBinder(p Platform) *Binder {
	return &Binder{platform: p}
}

// Bind records value and returns its placeholder.
func (b *Binder) Bind(value any) string {
	b.args = append(b.args, value)
	return "?"
}

// BindList records each value and returns a comma separated placeholder list.
func (b *Binder) BindList(values []any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.Bind(v)
	}
	return strings.Join(placeholders, ", ")
}

// Platform returns the platform the fragment is rendered for.
func (b *Binder) Platform() Platform { return b.platform }

// Args returns the bound arguments in placeholder order.
func (b *Binder) Args() []any { return b.args }

// OperatorKind identifies a built-in operator implementation.
type OperatorKind int

// Built-in operator kinds. OpCustom marks externally registered entries.
const (
	OpCustom OperatorKind = iota
	OpEquals
	OpNot
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpRegExp
	OpLike
	OpFullText
	OpFullTextBoolean
	OpIn
)

var operatorKindNames = map[OperatorKind]string{
	OpCustom:             "custom",
	OpEquals:             "equals",
	OpNot:                "not",
	OpLessThan:           "less_than",
	OpLessThanOrEqual:    "less_than_or_equal",
	OpGreaterThan:        "greater_than",
	OpGreaterThanOrEqual: "greater_than_or_equal",
	OpRegExp:             "regexp",
	OpLike:               "like",
	OpFullText:           "fulltext",
	OpFullTextBoolean:    "fulltext_boolean",
	OpIn:                 "in",
}

func (k OperatorKind) String() string {
	if name, ok := operatorKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// New instantiates the built-in operator of this kind.
func (k OperatorKind) New() Operator {
	switch k {
	case OpEquals:
		return equalsOperator{}
	case OpNot:
		return notOperator{}
	case OpLessThan:
		return comparisonOperator{symbol: "<"}
	case OpLessThanOrEqual:
		return comparisonOperator{symbol: "<="}
	case OpGreaterThan:
		return comparisonOperator{symbol: ">"}
	case OpGreaterThanOrEqual:
		return comparisonOperator{symbol: ">="}
	case OpRegExp:
		return regexpOperator{}
	case OpLike:
		return likeOperator{}
	case OpFullText:
		return fullTextOperator{}
	case OpFullTextBoolean:
		return fullTextOperator{boolean: true}
	case OpIn:
		return inOperator{}
	default:
		return nil
	}
}

// defaultOperators is the seed table. Several tokens alias one kind.
var defaultOperators = map[string]OperatorKind{
	"<":                 OpLessThan,
	":lt":               OpLessThan,
	"<=":                OpLessThanOrEqual,
	":lte":              OpLessThanOrEqual,
	">":                 OpGreaterThan,
	":gt":               OpGreaterThan,
	">=":                OpGreaterThanOrEqual,
	":gte":              OpGreaterThanOrEqual,
	"~=":                OpRegExp,
	"=~":                OpRegExp,
	":regex":            OpRegExp,
	":like":             OpLike,
	":fulltext":         OpFullText,
	":fulltext_boolean": OpFullTextBoolean,
	"in":                OpIn,
	":in":               OpIn,
	"<>":                OpNot,
	"!=":                OpNot,
	":ne":               OpNot,
	":not":              OpNot,
	"=":                 OpEquals,
	":eq":               OpEquals,
}

// operatorEntry is either a callable (fn) or a type descriptor (factory).
type operatorEntry struct {
	kind    OperatorKind
	fn      OperatorFunc
	factory func() Operator
}

// OperatorRegistry maps operator tokens to operators. Tokens are case
// insensitive. Entries can be added but never replaced.
type OperatorRegistry struct {
	entries   map[string]operatorEntry
	instances map[string]Operator
	mu        sync.RWMutex
}

// NewOperatorRegistry returns a registry seeded with the built-in operators.
func NewOperatorRegistry() *OperatorRegistry {
	r := &OperatorRegistry{
		entries:   make(map[string]operatorEntry, len(defaultOperators)),
		instances: make(map[string]Operator),
	}
	for token, kind := range defaultOperators {
		r.entries[token] = operatorEntry{kind: kind, factory: kind.New}
	}
	return r
}

func foldToken(token string) string {
	return cases.Fold().String(strings.TrimSpace(token))
}

// Register adds a callable operator under token.
// It returns a *DuplicateOperatorError if the token is taken.
func (r *OperatorRegistry) Register(token string, fn OperatorFunc) error {
	return r.add(token, operatorEntry{kind: OpCustom, fn: fn})
}

// RegisterType adds an operator type under token. factory is called once,
// on first use, and the instance is reused afterwards.
func (r *OperatorRegistry) RegisterType(token string, factory func() Operator) error {
	return r.add(token, operatorEntry{kind: OpCustom, factory: factory})
}

func (r *OperatorRegistry) add(token string, entry operatorEntry) error {
	key := foldToken(token)
	if key == "" {
		return fmt.Errorf("%w: empty operator token", ErrInvalidValue)
	}
	if entry.fn == nil && entry.factory == nil {
		return fmt.Errorf("%w: operator %q has no implementation", ErrInvalidValue, token)
	}

	r.mu.Lock()
	if _, exists := r.entries[key]; exists {
		r.mu.Unlock()
		return &DuplicateOperatorError{Operator: token}
	}
	r.entries[key] = entry
	r.mu.Unlock()

	capitan.Emit(context.Background(), OperatorRegistered,
		KeyOperator.Field(key))

	return nil
}

// Resolve returns the operator registered under token.
func (r *OperatorRegistry) Resolve(token string) (Operator, bool) {
	key := foldToken(token)

	r.mu.RLock()
	entry, ok := r.entries[key]
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	if entry.fn != nil {
		r.mu.RUnlock()
		return entry.fn, true
	}
	if op, cached := r.instances[key]; cached {
		r.mu.RUnlock()
		return op, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if op, cached := r.instances[key]; cached {
		return op, true
	}
	op := entry.factory()
	if op == nil {
		return nil, false
	}
	r.instances[key] = op
	return op, true
}

// Has reports whether token is registered.
func (r *OperatorRegistry) Has(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[foldToken(token)]
	return ok
}

// Kind returns the kind registered under token.
func (r *OperatorRegistry) Kind(token string) (OperatorKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[foldToken(token)]
	return entry.kind, ok
}

// Tokens returns all registered tokens, sorted.
func (r *OperatorRegistry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.entries))
	for token := range r.entries {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
