package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublic(t *testing.T) {
	s := Public()

	assert.True(t, s.Contains(nil))
	assert.True(t, s.Contains(NewToken("build")))
	assert.Equal(t, "public", s.String())
}

func TestPrivate(t *testing.T) {
	owner := NewToken("settings")
	s := Private(owner)

	assert.True(t, s.Contains(owner))
	assert.False(t, s.Contains(nil))
	assert.False(t, s.Contains(NewToken("settings")), "tokens compare by identity")
	assert.Equal(t, "private(settings)", s.String())
}

func TestAny(t *testing.T) {
	a, b := NewToken("a"), NewToken("b")
	s := Any(Private(a), Private(b))

	assert.True(t, s.Contains(a))
	assert.True(t, s.Contains(b))
	assert.False(t, s.Contains(NewToken("c")))
	assert.False(t, s.Contains(nil))
	assert.Equal(t, "any(private(a), private(b))", s.String())
}

func TestTokenString(t *testing.T) {
	var tok *Token
	assert.Equal(t, "<public>", tok.String())
	assert.Equal(t, "x", NewToken("x").String())
}
