// Package room maps domain entities to fan-out addresses.
package room

import (
	"fmt"
	"strings"
)

// Kind tags the entity type a room belongs to.
type Kind string

const (
	User      Kind = "user"
	Workspace Kind = "workspace"
	Channel   Kind = "channel"
	Thread    Kind = "thread"
)

const sep = ":"

// Valid reports whether k is a known room kind.
func (k Kind) Valid() bool {
	switch k {
	case User, Workspace, Channel, Thread:
		return true
	}
	return false
}

// For returns the room name for the entity. An unknown kind or empty id is a
// programming error and panics.
func For(kind Kind, id string) string {
	if !kind.Valid() {
		panic(fmt.Sprintf("room: invalid kind %q", kind))
	}
	if id == "" {
		panic("room: empty id")
	}
	return string(kind) + sep + id
}

// ForUser is shorthand for For(User, id).
func ForUser(id string) string { return For(User, id) }

// ForWorkspace is shorthand for For(Workspace, id).
func ForWorkspace(id string) string { return For(Workspace, id) }

// Parse splits a room name back into its kind and id.
func Parse(name string) (Kind, string, error) {
	k, id, ok := strings.Cut(name, sep)
	if !ok || id == "" {
		return "", "", fmt.Errorf("room: malformed name %q", name)
	}
	kind := Kind(k)
	if !kind.Valid() {
		return "", "", fmt.Errorf("room: unknown kind %q", k)
	}
	return kind, id, nil
}
