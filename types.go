package hive

import (
	"reflect"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/types"
)

// Type describes a service type, possibly parameterized.
type Type = types.Type

// Tag is a capability marker lifecycle handlers match on.
type Tag = types.Tag

// Tagged is implemented by instances carrying their own tags.
type Tagged = types.Tagged

// Inspector computes type hierarchies and tags.
type Inspector = types.Inspector

// Type descriptor constructors.
var (
	TypeFor       = types.For
	Parameterized = types.Parameterized
	Subtype       = types.Subtype
	Supertype     = types.Supertype
	Wildcard      = types.Wildcard
	NewInspector  = types.NewInspector
	FormatType    = types.Format
)

// Access control.
type (
	Token = access.Token
	Scope = access.Scope
)

var (
	NewToken     = access.NewToken
	PublicScope  = access.Public
	PrivateScope = access.Private
	AnyScope     = access.Any
)

// TypeOf returns the descriptor of T.
func TypeOf[T any]() Type {
	return types.Of[T]()
}

// Annotate tags T on the default inspector.
func Annotate[T any](tags ...Tag) {
	types.DefaultInspector.Annotate(reflect.TypeFor[T](), tags...)
}

// DeclareSupertype records on the default inspector that T also provides the
// interface S. It must be called before T is registered or looked up.
func DeclareSupertype[T, S any]() error {
	return types.DefaultInspector.DeclareSupertypes(reflect.TypeFor[T](), reflect.TypeFor[S]())
}
