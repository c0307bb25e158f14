package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/pkg/validate"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
	"github.com/thuan734655/DACS3-Server/internal/realtime/registry"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Session is one authenticated connection. Handle is called from a single reader
// goroutine; Close may race with it and is idempotent.
type Session struct {
	m        *Manager
	connID   string
	identity domain.Identity
	sink     registry.Sink

	mu    sync.Mutex
	state State
}

func (s *Session) ID() string                { return s.connID }
func (s *Session) Identity() domain.Identity { return s.identity }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.state, to) {
		return fmt.Errorf("%s -> %s: %w", s.state, to, ErrInvalidTransition)
	}
	s.state = to
	return nil
}

// Activate registers the connection with sink as its outbound queue and joins the
// user's personal room.
func (s *Session) Activate(sink registry.Sink) error {
	if err := s.transition(Active); err != nil {
		return err
	}
	s.sink = sink
	if err := s.m.reg.Register(s.connID, s.identity.UserID, sink); err != nil {
		s.mu.Lock()
		s.state = Disconnected
		s.mu.Unlock()
		return err
	}
	userRoom := room.ForUser(s.identity.UserID)
	if _, err := s.m.reg.Join(s.connID, userRoom); err != nil {
		return err
	}
	s.m.log.Info("ws: connection active", "conn_id", s.connID, "user_id", s.identity.UserID)
	s.reply(EventJoined, userRoom, map[string]string{"room": userRoom, "kind": string(room.User), "id": s.identity.UserID})
	return nil
}

// Close deregisters the connection. Only the first call has any effect.
func (s *Session) Close() {
	s.mu.Lock()
	prev := s.state
	if prev == Disconnected {
		s.mu.Unlock()
		return
	}
	s.state = Disconnected
	s.mu.Unlock()

	if prev != Active {
		return
	}
	removed, ok := s.m.reg.Deregister(s.connID)
	if !ok {
		return
	}
	s.m.log.Info("ws: connection closed", "conn_id", s.connID, "user_id", removed.UserID, "remaining", removed.Remaining)
	if removed.Remaining > 0 {
		return
	}
	var workspaces []string
	for _, r := range removed.Rooms {
		if kind, _, err := room.Parse(r); err == nil && kind == room.Workspace {
			workspaces = append(workspaces, r)
		}
	}
	if len(workspaces) == 0 {
		return
	}
	payload := map[string]string{"userId": removed.UserID}
	if _, err := s.m.fan.Dispatch(context.Background(), EventOffline, workspaces, payload); err != nil {
		s.m.log.Warn("ws: presence offline", "user_id", removed.UserID, "err", err)
	}
}

// Handle processes one client frame. Failures are answered on this connection only.
func (s *Session) Handle(ctx context.Context, raw []byte) {
	if s.State() != Active {
		return
	}
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		s.badRequest("malformed frame")
		return
	}
	if err := validate.Struct(in); err != nil {
		s.badRequest(err.Error())
		return
	}

	if verb, kind, ok := splitControl(in.Event); ok {
		var ref roomRef
		if !s.decode(in.Data, &ref) {
			return
		}
		if verb == "join" {
			s.join(ctx, kind, ref.ID)
		} else {
			s.leave(kind, ref.ID)
		}
		return
	}

	switch in.Event {
	case eventTyping, eventStopped:
		var ref typingRef
		if !s.decode(in.Data, &ref) {
			return
		}
		s.typing(ctx, in.Event, ref)
	case eventPing:
		s.reply(EventPong, "", nil)
	default:
		s.badRequest(fmt.Sprintf("unknown event %q", in.Event))
	}
}

// RateLimited tells the client a frame was dropped.
func (s *Session) RateLimited() {
	s.reply(EventRateLimited, "", map[string]string{"message": "too many events, slow down"})
}

func (s *Session) join(ctx context.Context, kind room.Kind, groupID string) {
	uid := s.identity.UserID
	target := room.For(kind, groupID)

	if kind == room.User {
		if groupID != uid {
			s.deny(kind, groupID, "you can only join your own user room")
			return
		}
		s.ackJoin(kind, groupID, target)
		return
	}

	ok, err := s.m.authority.IsMember(ctx, kind, groupID, uid)
	if err != nil {
		s.m.log.Error("ws: membership check failed", "conn_id", s.connID, "room", target, "err", err)
		s.deny(kind, groupID, "could not verify membership")
		return
	}

	var granted *domain.Channel
	if !ok && kind == room.Channel {
		granted, ok = s.grantChannel(ctx, groupID)
	}
	if !ok {
		s.deny(kind, groupID, fmt.Sprintf("you are not a member of this %s", kind))
		return
	}

	added, err := s.m.reg.Join(s.connID, target)
	if errors.Is(err, registry.ErrNotRegistered) {
		// connection closed while the check was in flight
		return
	}
	if err != nil {
		s.m.log.Error("ws: join", "conn_id", s.connID, "room", target, "err", err)
		return
	}
	s.ackJoin(kind, groupID, target)

	if granted != nil {
		s.announceChannelJoin(ctx, granted)
	}
	if added && kind == room.Workspace {
		payload := map[string]string{"userId": uid, "name": s.identity.DisplayName}
		_, _ = s.m.fan.DispatchExcept(ctx, EventOnline, []string{target}, s.connID, payload)
	}
}

// grantChannel applies open-channel self-service membership. It reports the channel
// when a new membership was written, and whether the user may join.
func (s *Session) grantChannel(ctx context.Context, channelID string) (*domain.Channel, bool) {
	ch, err := s.m.authority.Channel(ctx, channelID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.m.log.Error("ws: channel lookup failed", "channel_id", channelID, "err", err)
		}
		return nil, false
	}
	granted, err := s.m.authority.GrantChannel(ctx, ch, s.identity.UserID)
	if err != nil {
		var authErr *domain.AuthorizationError
		if !errors.As(err, &authErr) {
			s.m.log.Error("ws: channel grant failed", "channel_id", channelID, "err", err)
		}
		return nil, false
	}
	if !granted {
		return nil, true
	}
	return ch, true
}

func (s *Session) announceChannelJoin(ctx context.Context, ch *domain.Channel) {
	uid := s.identity.UserID
	if ch.CreatedBy != "" && ch.CreatedBy != uid {
		ws := ch.WorkspaceID
		if _, err := s.m.recorder.Record(ctx, notification.Record{
			Type:        domain.NotifChannelJoin,
			RecipientID: ch.CreatedBy,
			TypeID:      ch.ChannelID,
			WorkspaceID: &ws,
			Content:     fmt.Sprintf("%s joined channel %s", s.identity.DisplayName, ch.Name),
			ActorID:     uid,
		}); err != nil {
			s.m.log.Error("ws: channel join notification", "channel_id", ch.ChannelID, "user_id", uid, "err", err)
			return
		}
	}
	payload := map[string]string{"channelId": ch.ChannelID, "userId": uid, "name": s.identity.DisplayName}
	_, _ = s.m.fan.Dispatch(ctx, EventMemberAdded, []string{room.For(room.Channel, ch.ChannelID)}, payload)
}

func (s *Session) leave(kind room.Kind, groupID string) {
	if kind == room.User {
		s.badRequest("the user room cannot be left")
		return
	}
	target := room.For(kind, groupID)
	if _, err := s.m.reg.Leave(s.connID, target); err != nil {
		return
	}
	s.reply(EventLeft, target, map[string]string{"room": target})
}

func (s *Session) typing(ctx context.Context, event string, ref typingRef) {
	target := room.For(ref.Kind, ref.ID)
	if !s.m.reg.Joined(s.connID, target) {
		s.badRequest("join " + target + " before sending typing events")
		return
	}
	payload := map[string]string{
		"userId": s.identity.UserID,
		"name":   s.identity.DisplayName,
		"kind":   string(ref.Kind),
		"id":     ref.ID,
	}
	_, _ = s.m.fan.DispatchExcept(ctx, event, []string{target}, s.connID, payload)
}

func (s *Session) decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		s.badRequest("data is required")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.badRequest("malformed data")
		return false
	}
	if err := validate.Struct(v); err != nil {
		s.badRequest(err.Error())
		return false
	}
	return true
}

func (s *Session) ackJoin(kind room.Kind, groupID, target string) {
	s.reply(EventJoined, target, map[string]string{"room": target, "kind": string(kind), "id": groupID})
}

func (s *Session) deny(kind room.Kind, groupID, message string) {
	s.reply(EventAuthorization, "", map[string]string{
		"action":  prefixJoin + string(kind),
		"kind":    string(kind),
		"id":      groupID,
		"message": message,
	})
}

func (s *Session) badRequest(message string) {
	s.reply(EventBadRequest, "", map[string]string{"message": message})
}

// reply writes directly to this connection's queue, bypassing room fan-out.
func (s *Session) reply(event, roomName string, payload any) {
	if s.sink == nil {
		return
	}
	frame, err := fanout.Encode(event, roomName, payload)
	if err != nil {
		s.m.log.Error("ws: encode reply", "event", event, "err", err)
		return
	}
	s.sink.Push(frame)
}
