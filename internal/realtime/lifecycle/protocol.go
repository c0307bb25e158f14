package lifecycle

import (
	"encoding/json"
	"strings"

	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

// Client-to-server frame.
type inbound struct {
	Event string          `json:"event" validate:"required,max=64"`
	Data  json.RawMessage `json:"data"`
}

type roomRef struct {
	ID string `json:"id" validate:"required,max=128"`
}

type typingRef struct {
	Kind room.Kind `json:"kind" validate:"required,oneof=channel thread"`
	ID   string    `json:"id" validate:"required,max=128"`
}

// Event names of the client protocol.
const (
	prefixJoin   = "join:"
	prefixLeave  = "leave:"
	eventTyping  = "typing:start"
	eventStopped = "typing:stop"
	eventPing    = "presence:ping"

	EventJoined        = "room:joined"
	EventLeft          = "room:left"
	EventPong          = "presence:pong"
	EventOnline        = "presence:online"
	EventOffline       = "presence:offline"
	EventMemberAdded   = "channel:memberAdded"
	EventAuthorization = "error:authorization"
	EventBadRequest    = "error:badRequest"
	EventRateLimited   = "error:rateLimited"
)

// splitControl parses "join:<kind>" and "leave:<kind>".
func splitControl(event string) (verb string, kind room.Kind, ok bool) {
	for _, p := range []string{prefixJoin, prefixLeave} {
		if rest, found := strings.CutPrefix(event, p); found {
			k := room.Kind(rest)
			if !k.Valid() {
				return "", "", false
			}
			return strings.TrimSuffix(p, ":"), k, true
		}
	}
	return "", "", false
}
