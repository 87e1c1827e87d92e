package types

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Tag is a symbolic capability marker attached to service types.
type Tag string

// Tagged is implemented by values that carry tags of their own, in addition
// to the tags annotated on their type.
type Tagged interface {
	ServiceTags() []Tag
}

var anyType = reflect.TypeFor[any]()

// DefaultInspector is shared by registries that are not given their own.
var DefaultInspector = NewInspector()

// Inspector computes type hierarchies and tag membership.
// It is safe for concurrent use.
type Inspector struct {
	mu          sync.RWMutex
	supertypes  map[reflect.Type][]reflect.Type
	annotations map[reflect.Type][]Tag
	hierarchies sync.Map // reflect.Type -> []reflect.Type
}

// NewInspector creates an empty inspector.
func NewInspector() *Inspector {
	return &Inspector{
		supertypes:  make(map[reflect.Type][]reflect.Type),
		annotations: make(map[reflect.Type][]Tag),
	}
}

// DeclareSupertypes records that sub also provides each of supers.
// Every super must be an interface implemented by sub. Declarations must
// happen before sub takes part in any resolved hierarchy, that is before a
// service providing sub is registered or sub is looked up, since providers
// are indexed once and resolved hierarchies are cached. Later declarations
// are rejected.
func (i *Inspector) DeclareSupertypes(sub reflect.Type, supers ...reflect.Type) error {
	for _, super := range supers {
		if super.Kind() != reflect.Interface {
			return fmt.Errorf("%s cannot be declared as a supertype of %s: not an interface",
				FormatReflect(super), FormatReflect(sub))
		}
		if !sub.Implements(super) {
			return fmt.Errorf("%s does not implement %s", FormatReflect(sub), FormatReflect(super))
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.resolvedLocked(sub) {
		return fmt.Errorf("supertypes of %s must be declared before its hierarchy is resolved",
			FormatReflect(sub))
	}
	for _, super := range supers {
		if !slices.Contains(i.supertypes[sub], super) {
			i.supertypes[sub] = append(i.supertypes[sub], super)
		}
	}
	return nil
}

// resolvedLocked reports whether t is part of a cached hierarchy. The caller
// holds the write lock, so no hierarchy is being computed concurrently.
func (i *Inspector) resolvedLocked(t reflect.Type) bool {
	resolved := false
	i.hierarchies.Range(func(_, cached any) bool {
		resolved = slices.Contains(cached.([]reflect.Type), t)
		return !resolved
	})
	return resolved
}

// Annotate attaches tags to t.
func (i *Inspector) Annotate(t reflect.Type, tags ...Tag) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, tag := range tags {
		if !slices.Contains(i.annotations[t], tag) {
			i.annotations[t] = append(i.annotations[t], tag)
		}
	}
}

// Hierarchy returns t followed by every type t also provides: interfaces
// embedded in t (through embedded structs too) and declared supertypes.
// The empty interface is never part of a hierarchy.
func (i *Inspector) Hierarchy(t reflect.Type) []reflect.Type {
	if t == nil {
		return nil
	}
	if cached, ok := i.hierarchies.Load(t); ok {
		return cached.([]reflect.Type)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	w := &hierarchyWalker{inspector: i, seenStructs: make(map[reflect.Type]bool)}
	w.visit(t)
	actual, _ := i.hierarchies.LoadOrStore(t, w.result)
	return actual.([]reflect.Type)
}

// Provides reports whether super is part of the hierarchy of t.
func (i *Inspector) Provides(t, super reflect.Type) bool {
	return slices.Contains(i.Hierarchy(t), super)
}

// HasTag reports whether any type in the hierarchy of t is annotated with tag.
func (i *Inspector) HasTag(t reflect.Type, tag Tag) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, h := range i.hierarchyLocked(t) {
		if slices.Contains(i.annotations[h], tag) {
			return true
		}
	}
	return false
}

// InstanceHasTag reports whether the concrete value v carries tag, either
// through its type's hierarchy or through Tagged.
func (i *Inspector) InstanceHasTag(v any, tag Tag) bool {
	if v == nil {
		return false
	}
	if tagged, ok := v.(Tagged); ok && slices.Contains(tagged.ServiceTags(), tag) {
		return true
	}
	return i.HasTag(reflect.TypeOf(v), tag)
}

// Tags returns every tag annotated on the hierarchy of t, in discovery order.
func (i *Inspector) Tags(t reflect.Type) []Tag {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var tags []Tag
	for _, h := range i.hierarchyLocked(t) {
		for _, tag := range i.annotations[h] {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// Satisfies reports whether a provider declared as declared can serve a
// lookup of requested.
func (i *Inspector) Satisfies(declared, requested Type) bool {
	switch requested.kind {
	case KindClass:
		raw, err := Erase(declared)
		return err == nil && i.Provides(raw, requested.raw)
	case KindParameterized:
		if declared.kind != KindParameterized || len(declared.args) != len(requested.args) {
			return false
		}
		if !i.Provides(declared.raw, requested.raw) {
			return false
		}
		for n := range requested.args {
			if !i.argMatches(declared.args[n], requested.args[n]) {
				return false
			}
		}
		return true
	case KindSubtype:
		return i.Satisfies(declared, *requested.bound)
	default:
		return false
	}
}

func (i *Inspector) argMatches(actual, expected Type) bool {
	switch expected.kind {
	case KindWildcard:
		return true
	case KindSubtype:
		raw, err := Erase(actual)
		bound, berr := Erase(*expected.bound)
		return err == nil && berr == nil && i.Provides(raw, bound)
	case KindSupertype:
		raw, err := Erase(actual)
		bound, berr := Erase(*expected.bound)
		return err == nil && berr == nil && i.Provides(bound, raw)
	default:
		return Equal(actual, expected)
	}
}

// hierarchyLocked is Hierarchy for callers already holding i.mu.
func (i *Inspector) hierarchyLocked(t reflect.Type) []reflect.Type {
	if t == nil {
		return nil
	}
	if cached, ok := i.hierarchies.Load(t); ok {
		return cached.([]reflect.Type)
	}
	w := &hierarchyWalker{inspector: i, seenStructs: make(map[reflect.Type]bool)}
	w.visit(t)
	return w.result
}

type hierarchyWalker struct {
	inspector   *Inspector
	result      []reflect.Type
	seenStructs map[reflect.Type]bool
}

func (w *hierarchyWalker) visit(t reflect.Type) {
	if t == anyType || slices.Contains(w.result, t) {
		return
	}
	w.result = append(w.result, t)
	w.embedded(t)
	for _, super := range w.inspector.supertypes[t] {
		w.visit(super)
	}
}

// embedded adds the interfaces promoted into t through struct embedding.
func (w *hierarchyWalker) embedded(t reflect.Type) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct || w.seenStructs[st] {
		return
	}
	w.seenStructs[st] = true

	for n := range st.NumField() {
		f := st.Field(n)
		if !f.Anonymous {
			continue
		}
		if f.Type.Kind() == reflect.Interface {
			w.visit(f.Type)
			continue
		}
		w.embedded(f.Type)
	}
}
