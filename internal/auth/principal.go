package auth

import (
	"slices"

	"github.com/samber/lo"
)

// Principal is an authenticated user together with their effective role set.
// A nil *Principal is the anonymous caller. Principals are shared through the
// cache and must not be modified.
type Principal struct {
	UserID   uint64
	Username string
	Email    string
	Admin    bool
	// PrivateRoleID is the id of the user's own role, zero when missing.
	PrivateRoleID uint
	Roles         map[uint]struct{}
}

// IsAnonymous reports whether p is the anonymous caller.
func (p *Principal) IsAnonymous() bool {
	return p == nil
}

// IsAdmin reports whether p is an administrator.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Admin
}

// HasRole reports whether p holds the role id.
func (p *Principal) HasRole(id uint) bool {
	if p == nil {
		return false
	}

	_, ok := p.Roles[id]

	return ok
}

// HasAnyRole reports whether p holds at least one of ids.
func (p *Principal) HasAnyRole(ids ...uint) bool {
	return lo.SomeBy(ids, p.HasRole)
}

// RoleIDs returns the role set in ascending order.
func (p *Principal) RoleIDs() []uint {
	if p == nil {
		return nil
	}

	ids := lo.Keys(p.Roles)
	slices.Sort(ids)

	return ids
}
