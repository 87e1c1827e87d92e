// Package access restricts which callers may observe a service.
package access

import "strings"

// Token is a capability presented by a caller on lookup.
// Tokens are compared by identity.
type Token struct {
	name string
}

// NewToken creates a new, unique token.
func NewToken(name string) *Token {
	return &Token{name: name}
}

func (t *Token) String() string {
	if t == nil {
		return "<public>"
	}
	return t.name
}

// Scope decides whether a provider is visible to the holder of a token.
type Scope interface {
	Contains(token *Token) bool
	String() string
}

type publicScope struct{}

func (publicScope) Contains(*Token) bool { return true }
func (publicScope) String() string       { return "public" }

// Public returns the scope visible to every caller.
func Public() Scope {
	return publicScope{}
}

type privateScope struct {
	owner *Token
}

func (s privateScope) Contains(token *Token) bool { return token != nil && token == s.owner }
func (s privateScope) String() string             { return "private(" + s.owner.String() + ")" }

// Private returns a scope visible only to callers presenting owner.
func Private(owner *Token) Scope {
	return privateScope{owner: owner}
}

type unionScope []Scope

func (u unionScope) Contains(token *Token) bool {
	for _, s := range u {
		if s.Contains(token) {
			return true
		}
	}
	return false
}

func (u unionScope) String() string {
	names := make([]string, len(u))
	for i, s := range u {
		names[i] = s.String()
	}
	return "any(" + strings.Join(names, ", ") + ")"
}

// Any returns a scope containing every token contained by one of scopes.
func Any(scopes ...Scope) Scope {
	return unionScope(append([]Scope(nil), scopes...))
}
