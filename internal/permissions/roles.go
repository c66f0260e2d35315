// Package permissions implements the role hierarchy used by the permission
// gate. Roles are ordinal: a sender passes when their resolved role is at
// least the command's required role.
package permissions

// Role is an ordinal permission tier.
type Role int

const (
	RoleMember Role = iota
	RoleAdmin
	RoleOwner
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	default:
		return "member"
	}
}

// PolicyEngine resolves sender roles from the configured owner list and a
// thread's admin membership.
type PolicyEngine struct {
	owners map[string]bool
}

// NewPolicyEngine creates a policy engine from the configured owner IDs.
func NewPolicyEngine(ownerIDs []string) *PolicyEngine {
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		if id != "" {
			owners[id] = true
		}
	}
	return &PolicyEngine{owners: owners}
}

// IsOwner reports whether senderID is a configured bot owner.
func (p *PolicyEngine) IsOwner(senderID string) bool {
	return p.owners[senderID]
}

// Resolve returns the sender's role: owner if configured, admin if the
// sender appears in threadAdmins, member otherwise.
func (p *PolicyEngine) Resolve(senderID string, threadAdmins []string) Role {
	if p.owners[senderID] {
		return RoleOwner
	}
	for _, id := range threadAdmins {
		if id == senderID {
			return RoleAdmin
		}
	}
	return RoleMember
}

// Allows reports whether actual satisfies the required role.
func Allows(required, actual Role) bool {
	return actual >= required
}
