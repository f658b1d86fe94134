package authz

import (
	"strings"

	"rtaportal/internal/models"
)

// rolePermissions mirrors the sub-role table the RTA backend enforces. The
// copy here exists only to decide which controls the portal shows; the
// backend re-checks every mutating call with its own authoritative table.
// Do not gate a write on this map alone.
var rolePermissions = map[string][]string{
	"rta_ceo":            {"all"},
	"rta_coo":            {"all"},
	"compliance_head":    {"view_audit", "view_reports", "approve_compliance"},
	"operations_manager": {"view_dashboard", "manage_transactions", "approve_level1", "view_users"},
	"senior_executive":   {"view_dashboard", "create_transaction", "view_users_read"},
	"executive":          {"view_dashboard", "create_transaction"},
	"customer_service":   {"view_dashboard", "view_users_read"},
}

// superAdminEmail is the designated super identity; it bypasses the
// sub-role table entirely. Overridden from SUPER_ADMIN_EMAIL at startup.
var superAdminEmail = "admin@rtasystem.com"

// SetSuperAdmin installs the configured super identity. Called once while
// the router is built, before any request is served.
func SetSuperAdmin(email string) {
	if strings.TrimSpace(email) == "" {
		return
	}
	superAdminEmail = strings.ToLower(strings.TrimSpace(email))
}

// KnownSubRole reports whether s is one of the admin sub-roles the backend
// recognizes.
func KnownSubRole(s string) bool {
	_, ok := rolePermissions[s]
	return ok
}

// CanAccess reports whether the given user should see a control guarded by
// perm. Pure function of the session's role claims; never touches the
// network.
func CanAccess(u models.User, perm string) bool {
	if u.Role != "admin" {
		return false
	}
	if strings.EqualFold(u.Email, superAdminEmail) {
		return true
	}
	for _, granted := range rolePermissions[u.SubRole] {
		if granted == "all" || granted == perm {
			return true
		}
	}
	return false
}

// Permissions returns the display-hint permission set for a user, with the
// "all" wildcard expanded for the super identity and the all-granting
// sub-roles.
func Permissions(u models.User) []string {
	if u.Role != "admin" {
		return nil
	}
	if strings.EqualFold(u.Email, superAdminEmail) {
		return []string{"all"}
	}
	perms := rolePermissions[u.SubRole]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
