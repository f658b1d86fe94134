package authz

import (
	"testing"

	"rtaportal/internal/models"
)

func TestCanAccessSubRoles(t *testing.T) {
	cases := []struct {
		name string
		user models.User
		perm string
		want bool
	}{
		{"executive lacks level1 approval", models.User{Role: "admin", SubRole: "executive"}, "approve_level1", false},
		{"ops manager has level1 approval", models.User{Role: "admin", SubRole: "operations_manager"}, "approve_level1", true},
		{"super identity bypasses table", models.User{Role: "admin", Email: "admin@rtasystem.com"}, "anything", true},
		{"super identity is case-insensitive", models.User{Role: "admin", Email: "Admin@RTASystem.com"}, "anything", true},
		{"ceo wildcard", models.User{Role: "admin", SubRole: "rta_ceo"}, "view_audit", true},
		{"non-admin denied regardless of sub-role", models.User{Role: "investor", SubRole: "rta_ceo"}, "view_dashboard", false},
		{"unknown sub-role denied", models.User{Role: "admin", SubRole: "intern"}, "view_dashboard", false},
		{"empty user denied", models.User{}, "view_dashboard", false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.user, tc.perm); got != tc.want {
			t.Errorf("%s: CanAccess=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestSetSuperAdminReplacesIdentity(t *testing.T) {
	prev := superAdminEmail
	t.Cleanup(func() { superAdminEmail = prev })

	SetSuperAdmin("root@othercorp.com")
	if CanAccess(models.User{Role: "admin", Email: "admin@rtasystem.com", SubRole: "customer_service"}, "view_audit") {
		t.Fatal("previous super identity should fall back to its sub-role table")
	}
	if !CanAccess(models.User{Role: "admin", Email: "Root@OtherCorp.com"}, "view_audit") {
		t.Fatal("configured super identity should bypass the table")
	}
	SetSuperAdmin("  ")
	if !CanAccess(models.User{Role: "admin", Email: "root@othercorp.com"}, "view_audit") {
		t.Fatal("blank override should leave the identity unchanged")
	}
}

func TestKnownSubRole(t *testing.T) {
	if !KnownSubRole("operations_manager") {
		t.Fatal("operations_manager should be known")
	}
	if KnownSubRole("intern") {
		t.Fatal("intern should be unknown")
	}
}

func TestPermissionsDisplayHint(t *testing.T) {
	if got := Permissions(models.User{Role: "investor"}); got != nil {
		t.Fatalf("expected nil permissions for non-admin, got %v", got)
	}
	got := Permissions(models.User{Role: "admin", SubRole: "customer_service"})
	if len(got) != 2 {
		t.Fatalf("unexpected permission set: %v", got)
	}
	got = Permissions(models.User{Role: "admin", Email: "admin@rtasystem.com"})
	if len(got) != 1 || got[0] != "all" {
		t.Fatalf("expected [all] for super identity, got %v", got)
	}
}
