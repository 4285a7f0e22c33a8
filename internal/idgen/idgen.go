// Package idgen provides short, URL-safe record IDs backed by nanoid.
package idgen

import (
	"errors"
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for generated IDs.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of characters in a generated ID.
var Length = 5

// maxAttempts bounds GenerateUnique. With 62^5 possible IDs a collision
// within a few attempts means the keyspace is effectively exhausted.
const maxAttempts = 8

// ErrExhausted is returned when GenerateUnique cannot find a free ID.
var ErrExhausted = errors.New("idgen: no free id found")

// Generate returns a new random ID.
func Generate() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// GenerateUnique returns an ID for which taken reports false. taken is
// called with the lock of the owning collection held, so it must not block.
func GenerateUnique(taken func(id string) bool) (string, error) {
	for range maxAttempts {
		id, err := Generate()
		if err != nil {
			return "", err
		}
		if !taken(id) {
			return id, nil
		}
	}
	return "", ErrExhausted
}
