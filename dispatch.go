package spot

import (
	"context"

	"github.com/zoobzio/capitan"
)

// DispatchKind tells where Lookup found a method.
type DispatchKind int

// Dispatch tiers, in lookup order.
const (
	DispatchNone DispatchKind = iota
	DispatchMethod
	DispatchScope
	DispatchResult
)

func (k DispatchKind) String() string {
	switch k {
	case DispatchMethod:
		return "method"
	case DispatchScope:
		return "scope"
	case DispatchResult:
		return "result"
	default:
		return "none"
	}
}

// Dispatch is a method resolved by Query.Lookup.
type Dispatch struct {
	Kind DispatchKind
	Name string

	query  *Query
	fn     QueryFunc
	result ResultMethod
}

// Invoke calls the method. Custom methods and scopes receive the query as
// their first argument; result-set methods run against the executed rows.
func (d Dispatch) Invoke(args ...any) (any, error) {
	switch d.Kind {
	case DispatchMethod, DispatchScope:
		return d.fn(d.query, args...)
	case DispatchResult:
		return d.result(args...)
	default:
		entity := ""
		if d.query != nil {
			entity = d.query.entity
		}
		return nil, &UnknownMethodError{Method: d.Name, Entity: entity}
	}
}

// Lookup resolves a method that is not part of Query. Custom methods are
// tried first, then the mapper's scopes, then the methods of the result set,
// which executes the query. It fails with *UnknownMethodError otherwise.
func (q *Query) Lookup(ctx context.Context, name string) (Dispatch, error) {
	d := Dispatch{Name: name, query: q}

	if q.extensions != nil {
		if fn, ok := q.extensions.Method(name); ok {
			d.Kind, d.fn = DispatchMethod, fn
			return q.dispatched(ctx, d), nil
		}
	}

	if fn, ok := q.mapper.Scopes()[name]; ok && fn != nil {
		d.Kind, d.fn = DispatchScope, fn
		return q.dispatched(ctx, d), nil
	}

	rs, err := q.Execute(ctx)
	if err != nil {
		return d, &UnknownMethodError{Method: name, Entity: q.entity, Cause: err}
	}
	if rs != nil {
		if m, ok := rs.Method(name); ok {
			d.Kind, d.result = DispatchResult, m
			return q.dispatched(ctx, d), nil
		}
	}

	return d, &UnknownMethodError{Method: name, Entity: q.entity}
}

func (q *Query) dispatched(ctx context.Context, d Dispatch) Dispatch {
	capitan.Debug(ctx, MethodDispatched,
		KeyEntity.Field(q.entity),
		KeyMethod.Field(d.Name),
		KeyTier.Field(d.Kind.String()))
	return d
}

// Call looks up name and invokes it with args.
//
//	active, err := q.Call(ctx, "active")
//	ids, err := q.Call(ctx, "identities")
func (q *Query) Call(ctx context.Context, name string, args ...any) (any, error) {
	d, err := q.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return d.Invoke(args...)
}
