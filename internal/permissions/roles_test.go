package permissions

import "testing"

func TestResolve(t *testing.T) {
	p := NewPolicyEngine([]string{"owner@s.whatsapp.net"})
	admins := []string{"admin@s.whatsapp.net"}

	tests := []struct {
		sender string
		want   Role
	}{
		{"owner@s.whatsapp.net", RoleOwner},
		{"admin@s.whatsapp.net", RoleAdmin},
		{"random@s.whatsapp.net", RoleMember},
	}
	for _, tt := range tests {
		if got := p.Resolve(tt.sender, admins); got != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.sender, got, tt.want)
		}
	}

	// Owner outranks thread admin even when listed as one.
	if got := p.Resolve("owner@s.whatsapp.net", []string{"owner@s.whatsapp.net"}); got != RoleOwner {
		t.Errorf("owner listed as admin resolved to %v", got)
	}
}

func TestAllows(t *testing.T) {
	if !Allows(RoleMember, RoleOwner) {
		t.Error("owner should pass a member gate")
	}
	if !Allows(RoleAdmin, RoleAdmin) {
		t.Error("equal role should pass")
	}
	if Allows(RoleOwner, RoleAdmin) {
		t.Error("admin must not pass an owner gate")
	}
}

func TestRoleString(t *testing.T) {
	if RoleMember.String() != "member" || RoleAdmin.String() != "admin" || RoleOwner.String() != "owner" {
		t.Error("role names wrong")
	}
}
