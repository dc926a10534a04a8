package spot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
)

// builtinMethods holds the lowercased names of Query's own methods. Custom
// methods may not shadow them.
var builtinMethods = map[string]struct{}{
	"where": {}, "orwhere": {}, "wherefieldsql": {}, "wheresql": {},
	"search": {}, "order": {}, "group": {}, "having": {}, "select": {},
	"with": {}, "relations": {}, "noquote": {}, "limit": {}, "offset": {},
	"fieldwithalias": {}, "escapeidentifier": {}, "escape": {},
	"parseconditions": {}, "builder": {}, "tosql": {},
	"count": {}, "execute": {}, "first": {}, "iter": {}, "toarray": {},
	"json": {}, "marshaljson": {}, "getat": {}, "setat": {},
	"lookup": {}, "call": {},
	"entityname": {}, "tablename": {}, "mapper": {}, "err": {},
}

// IsBuiltinMethod reports whether name is one of Query's own methods,
// compared case-insensitively.
func IsBuiltinMethod(name string) bool {
	_, ok := builtinMethods[strings.ToLower(name)]
	return ok
}

// ExtensionRegistry holds custom query methods shared by every Query a
// Factory creates.
type ExtensionRegistry struct {
	methods map[string]QueryFunc
	mu      sync.RWMutex
}

// NewExtensionRegistry returns an empty registry.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{methods: make(map[string]QueryFunc)}
}

// Register adds a custom method. It fails with *DuplicateMethodError when
// name is a built-in Query method or is already registered.
func (r *ExtensionRegistry) Register(name string, fn QueryFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty method name", ErrInvalidArgument)
	}
	if fn == nil {
		return fmt.Errorf("%w: method %q has no implementation", ErrInvalidArgument, name)
	}
	if IsBuiltinMethod(name) {
		return &DuplicateMethodError{Method: name, Builtin: true}
	}

	r.mu.Lock()
	if _, exists := r.methods[name]; exists {
		r.mu.Unlock()
		return &DuplicateMethodError{Method: name}
	}
	r.methods[name] = fn
	r.mu.Unlock()

	capitan.Emit(context.Background(), MethodRegistered,
		KeyMethod.Field(name))

	return nil
}

// Method returns the custom method registered under name.
func (r *ExtensionRegistry) Method(name string) (QueryFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.methods[name]
	return fn, ok
}

// Names returns the registered method names, sorted.
func (r *ExtensionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
