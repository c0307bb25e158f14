package membership

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thuan734655/DACS3-Server/internal/domain"
)

// Action names a role-gated mutation.
type Action string

const (
	ActionUpdateWorkspace Action = "update_workspace"
	ActionDeleteWorkspace Action = "delete_workspace"
	ActionAddMember       Action = "add_member"
	ActionRemoveMember    Action = "remove_member"

	ActionCreateChannel Action = "create_channel"
	ActionUpdateChannel Action = "update_channel"
	ActionDeleteChannel Action = "delete_channel"
)

var (
	management = []domain.Role{domain.RoleLeader, domain.RoleManager}
	leaderOnly = []domain.Role{domain.RoleLeader}
)

// policy is the single source of truth for which roles may perform which action.
var policy = map[Action][]domain.Role{
	ActionUpdateWorkspace: management,
	ActionDeleteWorkspace: leaderOnly,
	ActionAddMember:       management,
	ActionRemoveMember:    management,
	ActionCreateChannel:   management,
	ActionUpdateChannel:   management,
	ActionDeleteChannel:   management,
}

// targetPolicy restricts, per actor role, which roles an action may be applied to.
// Actor roles missing from an action's entry are unrestricted.
var targetPolicy = map[Action]map[domain.Role][]domain.Role{
	ActionRemoveMember: {domain.RoleManager: {domain.RoleMember}},
	ActionAddMember:    {domain.RoleManager: {domain.RoleMember}},
}

func init() {
	for _, kind := range []domain.WorkItemKind{domain.KindTask, domain.KindBug, domain.KindEpic, domain.KindSprint} {
		for _, act := range []domain.WorkItemAction{domain.ActionCreated, domain.ActionUpdated, domain.ActionDeleted} {
			policy[WorkItemAction(kind, act)] = management
		}
	}
}

// WorkItemAction maps a work-item mutation to its policy action, e.g. "create_task".
func WorkItemAction(kind domain.WorkItemKind, action domain.WorkItemAction) Action {
	verb := strings.TrimSuffix(string(action), "d")
	return Action(verb + "_" + string(kind))
}

// Known reports whether a is in the policy table.
func Known(a Action) bool {
	_, ok := policy[a]
	return ok
}

// Authorize reports whether role may perform action. Unknown actions are denied.
func Authorize(action Action, role domain.Role) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Permitted lists every action role may perform, sorted by name.
func Permitted(role domain.Role) []Action {
	var out []Action
	for action := range policy {
		if Authorize(action, role) {
			out = append(out, action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AuthorizeOver is Authorize plus the target-role restriction for actions applied to
// another member.
func AuthorizeOver(action Action, actor, target domain.Role) bool {
	if !Authorize(action, actor) {
		return false
	}
	allowed, restricted := targetPolicy[action][actor]
	if !restricted {
		return true
	}
	for _, r := range allowed {
		if r == target {
			return true
		}
	}
	return false
}

func denyRole(action Action) error {
	names := make([]string, 0, len(policy[action]))
	for _, r := range policy[action] {
		names = append(names, string(r))
	}
	what := strings.ReplaceAll(string(action), "_", " ")
	if len(names) == 0 {
		return domain.Deny(string(action), fmt.Sprintf("%s is not permitted", what))
	}
	return domain.Deny(string(action), fmt.Sprintf("only %s can %s", strings.Join(names, " or "), what))
}

func denyTarget(action Action, actor, target domain.Role) error {
	what := strings.ReplaceAll(string(action), "_", " ")
	return domain.Deny(string(action), fmt.Sprintf("a %s cannot %s with role %s", actor, what, target))
}
