package user

import "slices"

type Permission string

const (
	// Self service
	PermissionAttendancePunch   Permission = "attendance.punch"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"

	// Team attendance
	PermissionAttendanceViewAll     Permission = "attendance.view_all"
	PermissionAttendanceAdjust      Permission = "attendance.adjust"
	PermissionAttendanceMarkAbsent  Permission = "attendance.mark_absent"
	PermissionAttendanceForceAbsent Permission = "attendance.mark_absent_force"

	// Schedules
	PermissionScheduleView   Permission = "schedule.view"
	PermissionScheduleManage Permission = "schedule.manage"

	// Company settings
	PermissionCompanyView   Permission = "company.view"
	PermissionCompanyManage Permission = "company.manage"

	// Reports
	PermissionReportsView Permission = "reports.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendancePunch,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceAdjust,
		PermissionAttendanceMarkAbsent,
		PermissionAttendanceForceAbsent,
		PermissionScheduleView,
		PermissionScheduleManage,
		PermissionCompanyView,
		PermissionCompanyManage,
		PermissionReportsView,
	},
	RoleManager: {
		PermissionAttendancePunch,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceAdjust,
		PermissionAttendanceMarkAbsent,
		PermissionScheduleView,
		PermissionCompanyView,
		PermissionReportsView,
	},
	RoleEmployee: {
		PermissionAttendancePunch,
		PermissionAttendanceViewOwn,
		PermissionCompanyView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	return slices.Contains(permissions, permission)
}
