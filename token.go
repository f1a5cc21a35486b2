package iocraft

import (
	"fmt"

	"github.com/google/uuid"
)

// Token is the opaque identity of a registered service type.
// Tokens are comparable and are used as registry keys, so two types that share
// a name never collide.
type Token struct {
	id   uuid.UUID
	name string
}

func newToken(name string) Token {
	return Token{id: uuid.New(), name: name}
}

// IsZero reports whether the token was never issued by Register.
func (t Token) IsZero() bool {
	return t.id == uuid.Nil
}

// ID returns the unique identifier backing the token.
func (t Token) ID() uuid.UUID {
	return t.id
}

func (t Token) String() string {
	if t.name == "" {
		return fmt.Sprintf("[iocraft]: Service - Anonymous (%s)", t.id)
	}
	return "[iocraft]: Service - " + t.name
}
