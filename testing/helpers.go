// Package testing provides test utilities and helpers for spot users.
// These utilities help users test their own spot-based applications.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/spot"
)

// Query execution states recorded by QueryCapture.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExecutedQuery represents a captured query execution.
type ExecutedQuery struct {
	ID        string
	Table     string
	SQL       string
	Status    string
	Error     string
	Timestamp time.Time
}

// QueryCapture captures query execution events for testing and verification.
// Thread-safe for concurrent capture.
type QueryCapture struct {
	queries []ExecutedQuery
	mu      sync.Mutex
}

// NewQueryCapture creates a new QueryCapture instance.
func NewQueryCapture() *QueryCapture {
	return &QueryCapture{
		queries: make([]ExecutedQuery, 0),
	}
}

// Handler returns an EventCallback that records QueryStarted, QueryCompleted
// and QueryFailed events. Completion and failure update the started entry with
// the same query id.
func (qc *QueryCapture) Handler() capitan.EventCallback {
	return func(_ context.Context, e *capitan.Event) {
		var status string
		switch e.Signal() {
		case spot.QueryStarted:
			status = StatusStarted
		case spot.QueryCompleted:
			status = StatusCompleted
		case spot.QueryFailed:
			status = StatusFailed
		default:
			return
		}

		id, _ := spot.KeyQueryID.From(e)
		table, _ := spot.KeyTable.From(e)
		sql, _ := spot.KeySQL.From(e)
		msg, _ := spot.KeyError.From(e)

		qc.mu.Lock()
		defer qc.mu.Unlock()
		if status != StatusStarted {
			for i := range qc.queries {
				if qc.queries[i].ID == id && id != "" {
					qc.queries[i].Status = status
					qc.queries[i].Error = msg
					return
				}
			}
		}
		qc.queries = append(qc.queries, ExecutedQuery{
			ID:        id,
			Table:     table,
			SQL:       sql,
			Status:    status,
			Error:     msg,
			Timestamp: time.Now(),
		})
	}
}

// Queries returns a copy of all captured queries.
func (qc *QueryCapture) Queries() []ExecutedQuery {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	result := make([]ExecutedQuery, len(qc.queries))
	copy(result, qc.queries)
	return result
}

// Count returns the number of captured queries.
func (qc *QueryCapture) Count() int {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return len(qc.queries)
}

// Reset clears all captured queries.
func (qc *QueryCapture) Reset() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.queries = qc.queries[:0]
}

// Last returns the most recently captured query, or nil if none.
func (qc *QueryCapture) Last() *ExecutedQuery {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if len(qc.queries) == 0 {
		return nil
	}
	q := qc.queries[len(qc.queries)-1]
	return &q
}

// ByTable returns all captured queries against a table.
func (qc *QueryCapture) ByTable(table string) []ExecutedQuery {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	result := make([]ExecutedQuery, 0)
	for _, q := range qc.queries {
		if q.Table == table {
			result = append(result, q)
		}
	}
	return result
}

// ByStatus returns all captured queries in a given state.
func (qc *QueryCapture) ByStatus(status string) []ExecutedQuery {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	result := make([]ExecutedQuery, 0)
	for _, q := range qc.queries {
		if q.Status == status {
			result = append(result, q)
		}
	}
	return result
}

// WaitForCount blocks until the capture has at least n queries or timeout occurs.
func (qc *QueryCapture) WaitForCount(n int, timeout time.Duration) bool {
	return waitFor(qc.Count, n, timeout)
}

// Registration represents a captured operator or method registration.
type Registration struct {
	Kind      string // "operator" or "method"
	Name      string
	Timestamp time.Time
}

// RegistrationCapture captures OperatorRegistered and MethodRegistered events.
// Thread-safe for concurrent capture.
type RegistrationCapture struct {
	registrations []Registration
	mu            sync.Mutex
}

// NewRegistrationCapture creates a new RegistrationCapture instance.
func NewRegistrationCapture() *RegistrationCapture {
	return &RegistrationCapture{
		registrations: make([]Registration, 0),
	}
}

// Handler returns an EventCallback that captures registration events.
func (rc *RegistrationCapture) Handler() capitan.EventCallback {
	return func(_ context.Context, e *capitan.Event) {
		var reg Registration
		switch e.Signal() {
		case spot.OperatorRegistered:
			reg.Kind = "operator"
			reg.Name, _ = spot.KeyOperator.From(e)
		case spot.MethodRegistered:
			reg.Kind = "method"
			reg.Name, _ = spot.KeyMethod.From(e)
		default:
			return
		}
		reg.Timestamp = time.Now()

		rc.mu.Lock()
		defer rc.mu.Unlock()
		rc.registrations = append(rc.registrations, reg)
	}
}

// Registrations returns a copy of all captured registrations.
func (rc *RegistrationCapture) Registrations() []Registration {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	result := make([]Registration, len(rc.registrations))
	copy(result, rc.registrations)
	return result
}

// Names returns the names captured for a kind, in capture order.
func (rc *RegistrationCapture) Names(kind string) []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	names := make([]string, 0)
	for _, r := range rc.registrations {
		if r.Kind == kind {
			names = append(names, r.Name)
		}
	}
	return names
}

// Count returns the number of captured registrations.
func (rc *RegistrationCapture) Count() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.registrations)
}

// Reset clears all captured registrations.
func (rc *RegistrationCapture) Reset() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.registrations = rc.registrations[:0]
}

// WaitForCount blocks until the capture has at least n registrations or timeout occurs.
func (rc *RegistrationCapture) WaitForCount(n int, timeout time.Duration) bool {
	return waitFor(rc.Count, n, timeout)
}

func waitFor(count func() int, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if count() >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// RecordingResolver is a spot.Resolver that renders each query it receives
// and answers with fixed records. Use it to test code built on spot without
// a database.
type RecordingResolver struct {
	records    []spot.Record
	primaryKey string
	err        error
	rendered   []string
	mu         sync.Mutex
}

// NewRecordingResolver returns a resolver answering with records.
func NewRecordingResolver(primaryKey string, records ...spot.Record) *RecordingResolver {
	return &RecordingResolver{records: records, primaryKey: primaryKey}
}

// FailWith makes every later Read return err.
func (r *RecordingResolver) FailWith(err error) *RecordingResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

// Read records the rendered SQL of q and returns a copy of the fixed records.
func (r *RecordingResolver) Read(_ context.Context, q *spot.Query) (spot.ResultSet, error) {
	sql, _, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, sql)
	if r.err != nil {
		return nil, r.err
	}
	rows := make([]spot.Record, len(r.records))
	copy(rows, r.records)
	return spot.NewCollection(rows, r.primaryKey), nil
}

// SQL returns the statements rendered so far.
func (r *RecordingResolver) SQL() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]string, len(r.rendered))
	copy(result, r.rendered)
	return result
}

// Calls returns the number of Read calls that rendered successfully.
func (r *RecordingResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rendered)
}

// ConditionBuilder helps construct ordered condition lists.
type ConditionBuilder struct {
	conds spot.Conditions
}

// NewConditionBuilder creates a new ConditionBuilder instance.
func NewConditionBuilder() *ConditionBuilder {
	return &ConditionBuilder{}
}

// Set adds a condition to the builder. key is a field name optionally
// followed by an operator token, as in "age >=".
func (cb *ConditionBuilder) Set(key string, value any) *ConditionBuilder {
	cb.conds = cb.conds.Add(key, value)
	return cb
}

// Build returns a copy of the constructed conditions.
func (cb *ConditionBuilder) Build() spot.Conditions {
	result := make(spot.Conditions, len(cb.conds))
	copy(result, cb.conds)
	return result
}

// Reset clears the builder.
func (cb *ConditionBuilder) Reset() *ConditionBuilder {
	cb.conds = nil
	return cb
}
