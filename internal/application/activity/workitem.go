package activity

import (
	"context"
	"fmt"

	"github.com/thuan734655/DACS3-Server/internal/application/membership"
	"github.com/thuan734655/DACS3-Server/internal/application/notification"
	"github.com/thuan734655/DACS3-Server/internal/domain"
	"github.com/thuan734655/DACS3-Server/internal/realtime/room"
)

// notifTypes lists the notification type per kind for each outcome. Missing entries
// mean the kind has no such notification.
type notifTypes struct {
	assigned, unassigned, created, deleted domain.NotificationType
}

var typesByKind = map[domain.WorkItemKind]notifTypes{
	domain.KindTask:   {domain.NotifTaskAssigned, domain.NotifTaskUnassigned, domain.NotifTaskCreated, domain.NotifTaskDeleted},
	domain.KindBug:    {domain.NotifBugAssigned, domain.NotifBugUnassigned, domain.NotifBugReported, domain.NotifBugDeleted},
	domain.KindEpic:   {domain.NotifEpicAssigned, domain.NotifEpicUnassigned, domain.NotifEpicCreated, domain.NotifEpicDeleted},
	domain.KindSprint: {created: domain.NotifSprintCreated, deleted: domain.NotifSprintDeleted},
}

// workItemRun carries one WorkItem call so recipients are computed once.
type workItemRun struct {
	s       *service
	actor   domain.Identity
	ev      domain.WorkItemEvent
	types   notifTypes
	members []domain.Membership
	out     []*domain.Notification
}

func (s *service) WorkItem(ctx context.Context, actor domain.Identity, ev domain.WorkItemEvent) ([]*domain.Notification, error) {
	types, ok := typesByKind[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown work item kind %q: %w", ev.Kind, domain.ErrBadRequest)
	}
	action := membership.WorkItemAction(ev.Kind, ev.Action)
	if !membership.Known(action) {
		return nil, fmt.Errorf("unknown work item action %q: %w", ev.Action, domain.ErrBadRequest)
	}
	if _, err := s.authority.Require(ctx, ev.WorkspaceID, actor.UserID, action); err != nil {
		return nil, err
	}

	run := &workItemRun{s: s, actor: actor, ev: ev, types: types}
	var err error
	switch ev.Action {
	case domain.ActionCreated:
		err = run.created(ctx)
	case domain.ActionUpdated:
		err = run.updated(ctx)
	case domain.ActionDeleted:
		err = run.deleted(ctx)
	}
	if err != nil {
		return run.out, err
	}

	s.broadcast(ctx, string(ev.Kind)+":"+string(ev.Action), room.Workspace, ev.WorkspaceID, ev)
	return run.out, nil
}

func (r *workItemRun) created(ctx context.Context) error {
	assignee := r.otherThanActor(r.ev.AssigneeID)
	if assignee != "" && r.types.assigned != "" {
		if err := r.record(ctx, r.types.assigned, assignee, r.content("%s assigned you to %s %q")); err != nil {
			return err
		}
	}
	return r.toMembers(ctx, r.types.created, true, assignee, r.content("%s created %s %q"))
}

func (r *workItemRun) updated(ctx context.Context) error {
	next, prev := deref(r.ev.AssigneeID), deref(r.ev.PreviousAssigneeID)
	if next != prev && r.types.assigned != "" {
		if to := r.otherThanActor(r.ev.AssigneeID); to != "" {
			if err := r.record(ctx, r.types.assigned, to, r.content("%s assigned you to %s %q")); err != nil {
				return err
			}
		}
		if from := r.otherThanActor(r.ev.PreviousAssigneeID); from != "" {
			if err := r.record(ctx, r.types.unassigned, from, r.content("%s unassigned you from %s %q")); err != nil {
				return err
			}
		}
	}
	if r.ev.Status == r.ev.PreviousStatus {
		return nil
	}

	switch r.ev.Kind {
	case domain.KindTask:
		if r.ev.Status == domain.StatusDone {
			return r.toMembers(ctx, domain.NotifTaskCompleted, true, "", r.content("%s completed %s %q"))
		}
	case domain.KindSprint:
		switch r.ev.Status {
		case domain.StatusActive:
			return r.toMembers(ctx, domain.NotifSprintStarted, false, "", r.content("%s started %s %q"))
		case domain.StatusCompleted:
			return r.toMembers(ctx, domain.NotifSprintCompleted, false, "", r.content("%s completed %s %q"))
		}
	case domain.KindBug:
		if to := r.otherThanActor(r.ev.AssigneeID); to != "" {
			return r.record(ctx, domain.NotifBugStatusChanged, to,
				r.content("%s changed the status of %s %q")+" to "+r.ev.Status)
		}
	}
	return nil
}

func (r *workItemRun) deleted(ctx context.Context) error {
	if r.ev.Kind == domain.KindSprint {
		return r.toMembers(ctx, r.types.deleted, false, "", r.content("%s deleted %s %q"))
	}
	if to := r.otherThanActor(r.ev.AssigneeID); to != "" {
		return r.record(ctx, r.types.deleted, to, r.content("%s deleted %s %q"))
	}
	return nil
}

// toMembers notifies workspace members other than the actor and skip. With
// managementOnly set, only Leaders and Managers are included.
func (r *workItemRun) toMembers(ctx context.Context, t domain.NotificationType, managementOnly bool, skip, content string) error {
	if r.members == nil {
		members, err := r.s.authority.Members(ctx, r.ev.WorkspaceID)
		if err != nil {
			return err
		}
		r.members = members
	}
	for _, m := range r.members {
		if m.UserID == r.actor.UserID || m.UserID == skip {
			continue
		}
		if managementOnly && !m.Role.IsManagement() {
			continue
		}
		if err := r.record(ctx, t, m.UserID, content); err != nil {
			return err
		}
	}
	return nil
}

func (r *workItemRun) record(ctx context.Context, t domain.NotificationType, recipient, content string) error {
	ws := r.ev.WorkspaceID
	n, err := r.s.recorder.Record(ctx, notification.Record{
		Type:        t,
		RecipientID: recipient,
		TypeID:      r.ev.EntityID,
		WorkspaceID: &ws,
		Content:     content,
		ActorID:     r.actor.UserID,
	})
	if err != nil {
		return err
	}
	r.out = append(r.out, n)
	return nil
}

// content fills format with the actor name, the kind and the title.
func (r *workItemRun) content(format string) string {
	return fmt.Sprintf(format, r.actor.DisplayName, r.ev.Kind, r.ev.Title)
}

func (r *workItemRun) otherThanActor(userID *string) string {
	if userID == nil || *userID == "" || *userID == r.actor.UserID {
		return ""
	}
	return *userID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
