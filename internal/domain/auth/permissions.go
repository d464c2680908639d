package auth

const (
	RoleEmployee     = "employee"
	RoleCompanyAdmin = "company_admin"
	RoleSystemAdmin  = "system_admin"
)

const (
	PermOrgRead           = "org.read"
	PermOrgWrite          = "org.write"
	PermSurveyRead        = "survey.read"
	PermSurveyWrite       = "survey.write"
	PermEvaluationsSubmit = "evaluations.submit"
	PermResultsRead       = "results.read"
	PermResultsReadAll    = "results.read_all"
	PermReportsRead       = "reports.read"
	PermReportsExport     = "reports.export"
	PermUsersManage       = "users.manage"
	PermAuditRead         = "audit.read"
	PermSystemAdmin       = "admin.system"
)

var DefaultPermissions = []string{
	PermOrgRead,
	PermOrgWrite,
	PermSurveyRead,
	PermSurveyWrite,
	PermEvaluationsSubmit,
	PermResultsRead,
	PermResultsReadAll,
	PermReportsRead,
	PermReportsExport,
	PermUsersManage,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermOrgRead,
		PermSurveyRead,
		PermEvaluationsSubmit,
		PermResultsRead,
	},
	RoleCompanyAdmin: {
		PermOrgRead,
		PermOrgWrite,
		PermSurveyRead,
		PermSurveyWrite,
		PermEvaluationsSubmit,
		PermResultsRead,
		PermResultsReadAll,
		PermReportsRead,
		PermReportsExport,
		PermUsersManage,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermOrgRead,
		PermOrgWrite,
		PermSurveyRead,
		PermSurveyWrite,
		PermEvaluationsSubmit,
		PermResultsRead,
		PermResultsReadAll,
		PermReportsRead,
		PermReportsExport,
		PermUsersManage,
		PermAuditRead,
		PermSystemAdmin,
	},
}
