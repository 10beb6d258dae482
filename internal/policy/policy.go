// Package policy decides whether an actor may perform an action on a resource.
// Every ownership and role check in the service layer goes through Decide.
package policy

import "miniblog/internal/models"

// Action is something an actor attempts.
type Action string

const (
	CreatePost      Action = "post.create"
	UpdatePost      Action = "post.update"
	DeletePost      Action = "post.delete"
	ModeratePost    Action = "post.moderate"
	ViewPost        Action = "post.view"
	ViewPending     Action = "post.view_pending"
	CreateComment   Action = "comment.create"
	DeleteComment   Action = "comment.delete"
	ViewAllComments Action = "comment.view_all"
	ManageRoles     Action = "role.manage"
)

// Decision is the outcome of Decide.
type Decision int

const (
	// Forbidden denies the action.
	Forbidden Decision = iota
	// Allow permits the action on ownership or general grounds.
	Allow
	// AllowModeration permits the action only because the actor is staff.
	// Callers use it to take the moderation path (no owner notification).
	AllowModeration
)

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d != Forbidden
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AllowModeration:
		return "allow_moderation"
	default:
		return "forbidden"
	}
}

// Actor is the caller. A zero UserID means anonymous.
type Actor struct {
	UserID uint
	Roles  []string
}

// ActorFor builds an actor from a user with loaded roles.
func ActorFor(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, Roles: u.RoleNames()}
}

// Has reports whether the actor holds role.
func (a Actor) Has(role string) bool {
	role = models.CanonicalRoleName(role)
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the actor is a Moderator or Admin.
func (a Actor) IsStaff() bool {
	return a.Has(models.RoleModerator) || a.Has(models.RoleAdmin)
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Resource describes what is being acted on. OwnerID is the author of the resource;
// ParentOwnerID is the author of the containing post for comments.
type Resource struct {
	OwnerID       uint
	ParentOwnerID uint
	Status        models.PostStatus
}

// Decide is the single authorization rule set.
func Decide(actor Actor, action Action, res Resource) Decision {
	owner := actor.Authenticated() && actor.UserID == res.OwnerID

	switch action {
	case CreatePost, CreateComment:
		return allowIf(actor.Authenticated())

	case UpdatePost, DeletePost:
		// staff get no special rights over someone else's content
		return allowIf(owner)

	case ModeratePost, ViewPending, ViewAllComments:
		if actor.IsStaff() {
			return Allow
		}
		return Forbidden

	case ViewPost:
		if res.Status == models.PostStatusApproved || owner {
			return Allow
		}
		if actor.IsStaff() {
			return AllowModeration
		}
		return Forbidden

	case DeleteComment:
		if owner || (actor.Authenticated() && actor.UserID == res.ParentOwnerID) {
			return Allow
		}
		if actor.IsStaff() {
			return AllowModeration
		}
		return Forbidden

	case ManageRoles:
		return allowIf(actor.Has(models.RoleAdmin))
	}

	return Forbidden
}

func allowIf(ok bool) Decision {
	if ok {
		return Allow
	}
	return Forbidden
}
