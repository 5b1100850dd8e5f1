package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/multipaga/internal/utils"
	"github.com/jrsteele09/multipaga/users"
	"github.com/stretchr/testify/require"
)

func TestAllPermissions(t *testing.T) {
	t.Run("union of role and direct permissions keeps first appearance order", func(t *testing.T) {
		u := users.UserInfo{
			Roles: []users.Role{
				{Name: "custom", Permissions: []string{"payments:view", "connectors:view"}},
				{Name: "other", Permissions: []string{"connectors:view", "analytics:view"}},
			},
			Permissions: []string{"payments:view", "pos:access"},
		}
		require.Equal(t, []string{"payments:view", "connectors:view", "analytics:view", "pos:access"}, u.AllPermissions())
	})

	t.Run("role without permissions falls back to the catalog", func(t *testing.T) {
		u := users.UserInfo{Roles: []users.Role{{Name: string(users.RoleMerchantViewer)}}}
		require.Equal(t, users.RolePermissions(users.RoleMerchantViewer), u.AllPermissions())
		require.True(t, u.HasPermission(users.PermConnectorsView))
		require.False(t, u.HasPermission(users.PermConnectorsCreate))
	})

	t.Run("role id resolves through the catalog", func(t *testing.T) {
		u := users.UserInfo{RoleID: string(users.RoleAdmin)}
		require.ElementsMatch(t, users.AllPermissionNames(), u.AllPermissions())
	})

	t.Run("no roles, no permissions", func(t *testing.T) {
		u := users.UserInfo{}
		require.Empty(t, u.AllPermissions())
		require.False(t, u.HasPermission(users.PermDashboardView))
	})
}

func TestRoleNames(t *testing.T) {
	u := users.UserInfo{
		RoleID: "merchant_admin",
		Roles:  []users.Role{{Name: "merchant_admin"}, {Name: "partner_bank"}},
	}
	require.Equal(t, []string{"merchant_admin", "partner_bank"}, u.RoleNames())
	require.True(t, u.HasRole("partner_bank"))
	require.False(t, u.HasRole("admin"))
}

func TestApplyPatch(t *testing.T) {
	u := users.UserInfo{ID: "u1", Email: "a@example.com", Name: "A", MerchantID: "m1"}

	patched := u.Apply(users.Patch{Name: utils.Ptr("B"), MerchantID: utils.Ptr("m2")})
	require.Equal(t, "B", patched.Name)
	require.Equal(t, "m2", patched.MerchantID)
	require.Equal(t, "a@example.com", patched.Email)
	require.Equal(t, "u1", patched.ID)

	// the receiver is a copy
	require.Equal(t, "A", u.Name)
}

func TestRoleCatalog(t *testing.T) {
	tests := []struct {
		role     users.RoleType
		userType users.UserType
	}{
		{users.RoleMerchantAdmin, users.UserTypeMerchant},
		{users.RoleMerchantOperator, users.UserTypeMerchant},
		{users.RoleMerchantViewer, users.UserTypeMerchant},
		{users.RoleConsumer, users.UserTypeConsumer},
		{users.RoleConsumerPremium, users.UserTypeConsumer},
		{users.RoleAdmin, users.UserTypeAdmin},
		{users.RoleOrgAdmin, users.UserTypeAdmin},
		{users.RoleAgentHonduras, users.UserTypeAgent},
		{users.RolePartnerBank, users.UserTypeConsumer},
		{users.RoleType("unknown"), users.UserTypeConsumer},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			require.Equal(t, tt.userType, tt.role.UserType())
		})
	}

	require.True(t, users.RoleHasPermission(users.RoleAgentHonduras, users.PermHondurasCompliance))
	require.False(t, users.RoleHasPermission(users.RoleConsumer, users.PermPOSAccess))
	require.Empty(t, users.RolePermissions("unknown"))
}

func TestUserInfoJSON(t *testing.T) {
	raw := `{"user_id":"u1","email":"a@example.com","name":"A","role_id":"merchant_admin","merchant_id":"m1","org_id":"o1","profile_id":"p1"}`
	var u users.UserInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	require.Equal(t, "m1", u.MerchantID)
	require.Equal(t, "o1", u.OrgID)
	require.Equal(t, "p1", u.ProfileID)
	require.True(t, u.HasPermission(users.PermSettingsAPIKeys))
}
