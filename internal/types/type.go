// Package types describes service types for registration and lookup.
//
// Go has no type erasure, so a lookup such as "a Factory producing Greeters"
// is expressed with a descriptor (Parameterized) whose erasure is the raw
// reflect.Type used to index providers.
package types

import (
	"reflect"
	"strings"

	"github.com/xraph/hive/internal/errors"
)

// Kind identifies the shape of a type descriptor.
type Kind int

const (
	// KindClass is a plain Go type.
	KindClass Kind = iota
	// KindParameterized is a raw type applied to type arguments.
	KindParameterized
	// KindSubtype is an upper-bounded wildcard (? extends X).
	KindSubtype
	// KindSupertype is a lower-bounded wildcard (? super X).
	KindSupertype
	// KindWildcard is the unbounded wildcard (?).
	KindWildcard
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindParameterized:
		return "parameterized"
	case KindSubtype:
		return "subtype"
	case KindSupertype:
		return "supertype"
	case KindWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Type is an immutable service type descriptor.
type Type struct {
	kind  Kind
	raw   reflect.Type
	args  []Type
	bound *Type
}

// Of returns the descriptor of the plain type T.
func Of[T any]() Type {
	return For(reflect.TypeFor[T]())
}

// For returns the descriptor of a plain reflect.Type.
func For(t reflect.Type) Type {
	return Type{kind: KindClass, raw: t}
}

// Parameterized returns raw applied to args, e.g. Factory<Greeter>.
func Parameterized(raw reflect.Type, args ...Type) Type {
	return Type{kind: KindParameterized, raw: raw, args: append([]Type(nil), args...)}
}

// Subtype returns the upper-bounded wildcard "? extends bound".
func Subtype(bound Type) Type {
	return Type{kind: KindSubtype, bound: &bound}
}

// Supertype returns the lower-bounded wildcard "? super bound".
func Supertype(bound Type) Type {
	return Type{kind: KindSupertype, bound: &bound}
}

// Wildcard returns the unbounded wildcard "?".
func Wildcard() Type {
	return Type{kind: KindWildcard}
}

// Kind returns the descriptor kind.
func (t Type) Kind() Kind { return t.kind }

// Raw returns the raw type of a class or parameterized descriptor, nil otherwise.
func (t Type) Raw() reflect.Type { return t.raw }

// Args returns a copy of the type arguments of a parameterized descriptor.
func (t Type) Args() []Type { return append([]Type(nil), t.args...) }

// Bound returns the bound of a bounded wildcard.
func (t Type) Bound() (Type, bool) {
	if t.bound == nil {
		return Type{}, false
	}
	return *t.bound, true
}

// IsZero reports whether t is the zero descriptor.
func (t Type) IsZero() bool {
	return t.kind == KindClass && t.raw == nil
}

// IsWildcard reports whether t is any of the wildcard kinds.
func (t Type) IsWildcard() bool {
	return t.kind == KindSubtype || t.kind == KindSupertype || t.kind == KindWildcard
}

// String renders t with Format.
func (t Type) String() string {
	return Format(t)
}

// Equal reports whether a and b describe the same type.
func Equal(a, b Type) bool {
	if a.kind != b.kind || a.raw != b.raw || len(a.args) != len(b.args) {
		return false
	}
	for i := range a.args {
		if !Equal(a.args[i], b.args[i]) {
			return false
		}
	}
	if (a.bound == nil) != (b.bound == nil) {
		return false
	}
	return a.bound == nil || Equal(*a.bound, *b.bound)
}

// Erase resolves t to the raw type used for index lookups.
//
// Plain types erase to themselves, parameterized types to their raw type and
// upper-bounded wildcards to the erasure of their bound. Lower-bounded and
// unbounded wildcards have no single raw type and fail with an INVALID_TYPE error.
func Erase(t Type) (reflect.Type, error) {
	switch t.kind {
	case KindClass, KindParameterized:
		if t.raw == nil {
			return nil, errors.ErrInvalidType(Format(t), "missing raw type")
		}
		return t.raw, nil
	case KindSubtype:
		return Erase(*t.bound)
	case KindSupertype:
		return nil, errors.ErrInvalidType(Format(t), "lower-bounded wildcards cannot be resolved to a single type")
	case KindWildcard:
		return nil, errors.ErrInvalidType(Format(t), "unbounded wildcards cannot be resolved to a single type")
	default:
		return nil, errors.ErrInvalidType(Format(t), "unknown type kind")
	}
}

// Format renders t for diagnostics. It never panics.
func Format(t Type) string {
	switch t.kind {
	case KindClass:
		return FormatReflect(t.raw)
	case KindParameterized:
		var b strings.Builder
		b.WriteString(FormatReflect(t.raw))
		b.WriteString("<")
		for i, arg := range t.args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Format(arg))
		}
		b.WriteString(">")
		return b.String()
	case KindSubtype:
		return "? extends " + Format(*t.bound)
	case KindSupertype:
		return "? super " + Format(*t.bound)
	case KindWildcard:
		return "?"
	default:
		return "<unknown>"
	}
}

// FormatReflect renders a reflect.Type the way Format renders plain types.
func FormatReflect(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		return "*" + FormatReflect(t.Elem())
	}
	if t.Name() != "" {
		return t.String()
	}
	switch {
	case t.Kind() == reflect.Struct:
		return "<anonymous>"
	case t.Kind() == reflect.Interface && t.NumMethod() == 0:
		return "any"
	default:
		return t.String()
	}
}

// FormatTypes renders "qualifier X" for one type and "qualifiers X, Y" for several.
func FormatTypes(qualifier string, ts []Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = Format(t)
	}
	if len(ts) == 1 {
		return qualifier + " " + names[0]
	}
	return qualifier + "s " + strings.Join(names, ", ")
}
