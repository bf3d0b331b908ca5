// Package authz holds the authorization policies consulted by the domain
// services before a mutation.
package authz

// Policy reports whether actorID may act on the resource identified by resourceID.
type Policy func(actorID, resourceID int64) bool

// AllowAll permits every actor.
func AllowAll(_, _ int64) bool { return true }

// DenyAll refuses every actor.
func DenyAll(_, _ int64) bool { return false }

// SelfOnly permits an actor to act only on the resource carrying its own id.
func SelfOnly(actorID, resourceID int64) bool { return actorID == resourceID }

// OrDefault returns p, or AllowAll when p is nil.
func OrDefault(p Policy) Policy {
	if p == nil {
		return AllowAll
	}
	return p
}

// FromMode maps a configured mode name to a policy. Unknown modes fall back to
// AllowAll.
func FromMode(mode string) Policy {
	switch mode {
	case "self":
		return SelfOnly
	case "deny":
		return DenyAll
	default:
		return AllowAll
	}
}
