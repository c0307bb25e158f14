// Package registry tracks live connections and the rooms they have joined.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrAlreadyRegistered = errors.New("connection already registered")
	ErrNotRegistered     = errors.New("connection not registered")
)

// Sink receives encoded frames for one connection. Push must not block; it reports
// whether the frame was queued.
type Sink interface {
	Push(frame []byte) bool
}

// Target is a resolved delivery destination.
type Target struct {
	ConnID string
	UserID string
	Room   string
	Sink   Sink
}

// Connection is a read-only snapshot of a registry entry.
type Connection struct {
	ID          string
	UserID      string
	Rooms       []string
	ConnectedAt time.Time
}

// Removed describes what Deregister tore down.
type Removed struct {
	UserID string
	Rooms  []string
	// Remaining is the number of connections the user still has open.
	Remaining int
}

type entry struct {
	userID      string
	rooms       map[string]struct{}
	connectedAt time.Time
	sink        Sink
}

// Registry is safe for concurrent use. A single RWMutex guards the three indexes so a
// join that has returned is always visible to the next lookup.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*entry
	rooms map[string]map[string]struct{}
	users map[string]map[string]struct{}
	now   func() time.Time
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]*entry),
		rooms: make(map[string]map[string]struct{}),
		users: make(map[string]map[string]struct{}),
		now:   time.Now,
	}
}

// Register adds a connection with no rooms.
func (r *Registry) Register(connID, userID string, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; ok {
		return fmt.Errorf("register %s: %w", connID, ErrAlreadyRegistered)
	}
	r.conns[connID] = &entry{
		userID:      userID,
		rooms:       make(map[string]struct{}),
		connectedAt: r.now(),
		sink:        sink,
	}
	add(r.users, userID, connID)
	return nil
}

// Join adds connID to room. Joining twice is a no-op. It reports whether the
// membership is new.
func (r *Registry) Join(connID, room string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return false, fmt.Errorf("join %s: %w", room, ErrNotRegistered)
	}
	if _, joined := e.rooms[room]; joined {
		return false, nil
	}
	e.rooms[room] = struct{}{}
	add(r.rooms, room, connID)
	return true, nil
}

// Leave removes connID from room. Leaving a room that was never joined is a no-op.
func (r *Registry) Leave(connID, room string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return false, fmt.Errorf("leave %s: %w", room, ErrNotRegistered)
	}
	if _, joined := e.rooms[room]; !joined {
		return false, nil
	}
	delete(e.rooms, room)
	remove(r.rooms, room, connID)
	return true, nil
}

// Evict removes every connection of userID from room and returns the affected ids.
func (r *Registry) Evict(userID, room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for connID := range r.users[userID] {
		e := r.conns[connID]
		if _, joined := e.rooms[room]; !joined {
			continue
		}
		delete(e.rooms, room)
		remove(r.rooms, room, connID)
		evicted = append(evicted, connID)
	}
	sort.Strings(evicted)
	return evicted
}

// EvictRoom empties room and returns the ids that were in it.
func (r *Registry) EvictRoom(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[room]
	evicted := make([]string, 0, len(members))
	for connID := range members {
		delete(r.conns[connID].rooms, room)
		evicted = append(evicted, connID)
	}
	delete(r.rooms, room)
	sort.Strings(evicted)
	return evicted
}

// Deregister removes the connection and all of its room memberships in one step.
// The second call for the same id returns false.
func (r *Registry) Deregister(connID string) (Removed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return Removed{}, false
	}
	rooms := make([]string, 0, len(e.rooms))
	for room := range e.rooms {
		remove(r.rooms, room, connID)
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	delete(r.conns, connID)
	remove(r.users, e.userID, connID)

	return Removed{UserID: e.userID, Rooms: rooms, Remaining: len(r.users[e.userID])}, true
}

// ConnectionsOf returns the ids joined to room, sorted.
func (r *Registry) ConnectionsOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.rooms[room])
}

// ConnectionsOfUser returns every open connection id of userID, sorted.
func (r *Registry) ConnectionsOfUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.users[userID])
}

// RoomsOfUser returns the union of rooms joined by any connection of userID, sorted.
func (r *Registry) RoomsOfUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[string]struct{})
	for connID := range r.users[userID] {
		for room := range r.conns[connID].rooms {
			rooms[room] = struct{}{}
		}
	}
	return keys(rooms)
}

// Targets resolves rooms to delivery targets. A connection joined to several of the
// rooms appears once, attributed to the first room listed. except is skipped.
func (r *Registry) Targets(rooms []string, except string) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []Target
	for _, room := range rooms {
		for _, connID := range keys(r.rooms[room]) {
			if connID == except {
				continue
			}
			if _, dup := seen[connID]; dup {
				continue
			}
			seen[connID] = struct{}{}
			e := r.conns[connID]
			out = append(out, Target{ConnID: connID, UserID: e.userID, Room: room, Sink: e.sink})
		}
	}
	return out
}

// Lookup returns a snapshot of one connection.
func (r *Registry) Lookup(connID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return Connection{}, false
	}
	return Connection{ID: connID, UserID: e.userID, Rooms: keys(e.rooms), ConnectedAt: e.connectedAt}, true
}

// Joined reports whether connID is currently in room.
func (r *Registry) Joined(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return false
	}
	_, joined := e.rooms[room]
	return joined
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func add(index map[string]map[string]struct{}, key, connID string) {
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[connID] = struct{}{}
}

func remove(index map[string]map[string]struct{}, key, connID string) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(index, key)
	}
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
