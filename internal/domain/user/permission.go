package user

type Permission string

const (
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManual  Permission = "attendance.manual_entry"
	PermissionAttendanceExport  Permission = "attendance.export"

	PermissionLeaveAdminApprove Permission = "leave.admin_approve"
	PermissionLeaveViewAll      Permission = "leave.view_all"

	PermissionEmployeeManage Permission = "employee.manage"
	PermissionProjectManage  Permission = "project.manage"

	PermissionWhitelistManage Permission = "ip_whitelist.manage"

	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionPayrollApprove Permission = "payroll.approve"

	PermissionAssignmentApproveAny Permission = "assignment.approve_any"
)

// RolePermissions maps roles to their permissions. Supervisor rights are
// relational (employees.supervisor_id) and are checked by the services.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceViewAll,
		PermissionAttendanceManual,
		PermissionAttendanceExport,
		PermissionLeaveAdminApprove,
		PermissionLeaveViewAll,
		PermissionEmployeeManage,
		PermissionProjectManage,
		PermissionWhitelistManage,
		PermissionPayrollManage,
		PermissionPayrollApprove,
		PermissionAssignmentApproveAny,
	},
	RoleEmployee: {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
