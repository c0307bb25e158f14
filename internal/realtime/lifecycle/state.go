package lifecycle

import "fmt"

// State is a connection's position in its lifecycle.
type State int

const (
	Connecting State = iota
	Authenticated
	Active
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authenticated:
		return "authenticated"
	case Active:
		return "active"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal next states. Disconnected is terminal.
var transitions = map[State][]State{
	Connecting:    {Authenticated, Disconnected},
	Authenticated: {Active, Disconnected},
	Active:        {Disconnected},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
