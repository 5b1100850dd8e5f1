package users

// RoleType is a dashboard role.
type RoleType string

const (
	// Administration
	RoleAdmin    RoleType = "admin"
	RoleOrgAdmin RoleType = "org_admin"

	// Merchant
	RoleMerchantAdmin    RoleType = "merchant_admin"
	RoleMerchantOperator RoleType = "merchant_operator"
	RoleMerchantViewer   RoleType = "merchant_viewer"

	// Consumer
	RoleConsumer        RoleType = "consumer"
	RoleConsumerPremium RoleType = "consumer_premium"

	// Honduras
	RoleAgentHonduras RoleType = "agent_honduras"
	RolePartnerBank   RoleType = "partner_bank"
)

// UserType groups roles into the kind of account they belong to.
type UserType string

const (
	UserTypeMerchant UserType = "merchant"
	UserTypeConsumer UserType = "consumer"
	UserTypeAgent    UserType = "agent"
	UserTypeAdmin    UserType = "admin"
)

const (
	PermDashboardView      = "dashboard:view"
	PermDashboardAnalytics = "dashboard:analytics"

	PermPaymentsView   = "payments:view"
	PermPaymentsCreate = "payments:create"
	PermPaymentsRefund = "payments:refund"
	PermPaymentsExport = "payments:export"
	PermPaymentsManage = "payments:manage"

	PermAnalyticsView     = "analytics:view"
	PermAnalyticsExport   = "analytics:export"
	PermAnalyticsAdvanced = "analytics:advanced"

	PermConnectorsView   = "connectors:view"
	PermConnectorsCreate = "connectors:create"
	PermConnectorsEdit   = "connectors:edit"
	PermConnectorsDelete = "connectors:delete"

	PermRefundsView   = "refunds:view"
	PermRefundsCreate = "refunds:create"
	PermRefundsManage = "refunds:manage"

	PermDisputesView     = "disputes:view"
	PermDisputesManage   = "disputes:manage"
	PermDisputesEvidence = "disputes:evidence"

	PermSettingsView     = "settings:view"
	PermSettingsEdit     = "settings:edit"
	PermSettingsAPIKeys  = "settings:api_keys"
	PermSettingsWebhooks = "settings:webhooks"

	PermUsersView      = "users:view"
	PermUsersCreate    = "users:create"
	PermUsersEdit      = "users:edit"
	PermUsersDelete    = "users:delete"
	PermUsersRoles     = "users:roles"
	PermUserManagement = "user:management"

	PermPOSAccess         = "pos:access"
	PermPOSManage         = "pos:manage"
	PermRemittanceSend    = "remittance:send"
	PermRemittanceReceive = "remittance:receive"
	PermRemittanceTrack   = "remittance:track"

	PermHondurasBanking     = "honduras:banking"
	PermHondurasMobileMoney = "honduras:mobile_money"
	PermHondurasCompliance  = "honduras:compliance"
)

// AllPermissionNames lists every known permission in catalog order.
func AllPermissionNames() []string {
	return []string{
		PermDashboardView, PermDashboardAnalytics,
		PermPaymentsView, PermPaymentsCreate, PermPaymentsRefund, PermPaymentsExport, PermPaymentsManage,
		PermAnalyticsView, PermAnalyticsExport, PermAnalyticsAdvanced,
		PermConnectorsView, PermConnectorsCreate, PermConnectorsEdit, PermConnectorsDelete,
		PermRefundsView, PermRefundsCreate, PermRefundsManage,
		PermDisputesView, PermDisputesManage, PermDisputesEvidence,
		PermSettingsView, PermSettingsEdit, PermSettingsAPIKeys, PermSettingsWebhooks,
		PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete, PermUsersRoles, PermUserManagement,
		PermPOSAccess, PermPOSManage, PermRemittanceSend, PermRemittanceReceive, PermRemittanceTrack,
		PermHondurasBanking, PermHondurasMobileMoney, PermHondurasCompliance,
	}
}

var rolePermissions = map[RoleType][]string{
	RoleOrgAdmin: {
		PermDashboardView, PermDashboardAnalytics,
		PermPaymentsView, PermPaymentsExport,
		PermAnalyticsView, PermAnalyticsExport, PermAnalyticsAdvanced,
		PermConnectorsView, PermRefundsView, PermDisputesView, PermSettingsView,
		PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersRoles, PermUserManagement,
	},
	RoleMerchantAdmin: {
		PermDashboardView, PermDashboardAnalytics,
		PermPaymentsView, PermPaymentsCreate, PermPaymentsRefund, PermPaymentsExport,
		PermAnalyticsView, PermAnalyticsExport,
		PermConnectorsView, PermConnectorsCreate, PermConnectorsEdit,
		PermRefundsView, PermRefundsCreate,
		PermDisputesView, PermDisputesManage,
		PermSettingsView, PermSettingsEdit, PermSettingsAPIKeys, PermSettingsWebhooks,
		PermPOSAccess, PermPOSManage, PermRemittanceSend, PermRemittanceTrack,
		PermHondurasBanking, PermHondurasMobileMoney,
	},
	RoleMerchantOperator: {
		PermDashboardView,
		PermPaymentsView, PermPaymentsCreate, PermPaymentsRefund,
		PermAnalyticsView, PermConnectorsView,
		PermRefundsView, PermRefundsCreate, PermDisputesView,
		PermPOSAccess, PermRemittanceSend, PermRemittanceTrack,
		PermHondurasBanking, PermHondurasMobileMoney,
	},
	RoleMerchantViewer: {
		PermDashboardView, PermPaymentsView, PermAnalyticsView, PermConnectorsView,
		PermRefundsView, PermDisputesView, PermRemittanceTrack,
	},
	RoleConsumer: {
		PermDashboardView, PermPaymentsView,
		PermRemittanceSend, PermRemittanceReceive, PermRemittanceTrack,
		PermHondurasMobileMoney,
	},
	RoleConsumerPremium: {
		PermDashboardView, PermPaymentsView, PermAnalyticsView,
		PermRemittanceSend, PermRemittanceReceive, PermRemittanceTrack,
		PermHondurasBanking, PermHondurasMobileMoney,
	},
	RoleAgentHonduras: {
		PermDashboardView, PermPaymentsView, PermPaymentsCreate, PermAnalyticsView,
		PermPOSAccess, PermPOSManage,
		PermRemittanceSend, PermRemittanceReceive, PermRemittanceTrack,
		PermHondurasBanking, PermHondurasMobileMoney, PermHondurasCompliance,
	},
	RolePartnerBank: {
		PermDashboardView, PermPaymentsView, PermAnalyticsView, PermAnalyticsExport,
		PermConnectorsView, PermRefundsView, PermDisputesView,
		PermHondurasBanking, PermHondurasCompliance,
	},
}

// RolePermissions returns the catalog permissions for a role. Admin holds every permission; unknown roles hold none.
func RolePermissions(role RoleType) []string {
	if role == RoleAdmin {
		return AllPermissionNames()
	}
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// RoleHasPermission checks the static catalog only.
func RoleHasPermission(role RoleType, permission string) bool {
	for _, p := range RolePermissions(role) {
		if p == permission {
			return true
		}
	}
	return false
}

func (r RoleType) IsMerchant() bool {
	return r == RoleMerchantAdmin || r == RoleMerchantOperator || r == RoleMerchantViewer
}

func (r RoleType) IsConsumer() bool {
	return r == RoleConsumer || r == RoleConsumerPremium
}

func (r RoleType) IsAdmin() bool {
	return r == RoleAdmin || r == RoleOrgAdmin
}

// UserType maps the role to its account kind, defaulting to consumer.
func (r RoleType) UserType() UserType {
	switch {
	case r.IsMerchant():
		return UserTypeMerchant
	case r.IsConsumer():
		return UserTypeConsumer
	case r.IsAdmin():
		return UserTypeAdmin
	case r == RoleAgentHonduras:
		return UserTypeAgent
	}
	return UserTypeConsumer
}
