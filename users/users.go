package users

import (
	"github.com/jrsteele09/multipaga/internal/utils"
)

// Role is a named role with the permissions the backend granted it.
type Role struct {
	Name        string   `json:"name" yaml:"name"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// UserInfo is the profile returned by GET /user. It is replaced wholesale on every fetch.
type UserInfo struct {
	ID          string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Email       string   `json:"email,omitempty" yaml:"email,omitempty"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	RoleID      string   `json:"role_id,omitempty" yaml:"role_id,omitempty"` // single role some backends return instead of Roles
	Roles       []Role   `json:"roles,omitempty" yaml:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"` // direct grants outside any role
	MerchantID  string   `json:"merchant_id,omitempty" yaml:"merchant_id,omitempty"`
	OrgID       string   `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	ProfileID   string   `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`
}

// Patch is a local partial update. Nil fields are left untouched.
type Patch struct {
	Email       *string
	Name        *string
	Roles       []Role
	Permissions []string
	MerchantID  *string
	OrgID       *string
	ProfileID   *string
}

// Apply merges the patch into a copy of u.
func (u UserInfo) Apply(p Patch) UserInfo {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Roles != nil {
		u.Roles = p.Roles
	}
	if p.Permissions != nil {
		u.Permissions = p.Permissions
	}
	if p.MerchantID != nil {
		u.MerchantID = *p.MerchantID
	}
	if p.OrgID != nil {
		u.OrgID = *p.OrgID
	}
	if p.ProfileID != nil {
		u.ProfileID = *p.ProfileID
	}
	return u
}

// RoleNames returns the user's role names, RoleID first when it is not already listed.
func (u *UserInfo) RoleNames() []string {
	names := make([]string, 0, len(u.Roles)+1)
	if u.RoleID != "" {
		names = append(names, u.RoleID)
	}
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return utils.Dedupe(names)
}

// AllPermissions is the union of role and direct permissions in order of first appearance.
// A role the backend sent without permissions falls back to the static catalog.
func (u *UserInfo) AllPermissions() []string {
	var perms []string
	if u.RoleID != "" && !u.hasRoleEntry(u.RoleID) {
		perms = append(perms, RolePermissions(RoleType(u.RoleID))...)
	}
	for _, r := range u.Roles {
		if len(r.Permissions) == 0 {
			perms = append(perms, RolePermissions(RoleType(r.Name))...)
			continue
		}
		perms = append(perms, r.Permissions...)
	}
	perms = append(perms, u.Permissions...)
	return utils.Dedupe(perms)
}

func (u *UserInfo) HasPermission(permission string) bool {
	for _, p := range u.AllPermissions() {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *UserInfo) HasRole(role string) bool {
	for _, r := range u.RoleNames() {
		if r == role {
			return true
		}
	}
	return false
}

func (u *UserInfo) hasRoleEntry(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
