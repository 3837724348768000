package core

import (
	"context"
)

// SubjectDirectory resolves a user to the groups it belongs to. Membership
// is owned by the host environment; this is a lookup capability only.
// Implementations must be total: an unknown user is a user with no groups,
// not an error.
type SubjectDirectory interface {
	GroupsOf(ctx context.Context, userID string) ([]string, error)
}

// Resolver computes effective permissions. Resolve is pure with respect to
// the store and safe for concurrent use; CanPerform applies the
// read-before-write combination rule on top of the resolved union.
type Resolver interface {
	Resolve(ctx context.Context, subject Subject, namespaceID uint, scope Scope) (FlagSet, error)
	CanPerform(ctx context.Context, requester string, namespaceID uint, scope Scope, action FlagSet) (bool, error)
	IsAdmin(requester string) bool
}

// Publisher fans permission events out to the socket layer.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
