package models

// Permission names an action guarded by the authorization policy.
type Permission string

const (
	PermStudentProfile   Permission = "student:profile"
	PermBookLesson       Permission = "student:book"
	PermCancelLesson     Permission = "student:cancel"
	PermStudentBookings  Permission = "student:bookings"
	PermTeacherProfile   Permission = "teacher:profile"
	PermTeacherLessons   Permission = "teacher:lessons"
	PermManageOwnLessons Permission = "teacher:manage_lessons"
	PermAdminProfile     Permission = "admin:profile"
	PermManageAccounts   Permission = "admin:accounts"
	PermViewAnalytics    Permission = "admin:analytics"
)

var rolePermissions = map[UserRole]map[Permission]struct{}{
	RoleStudent: permissionSet(
		PermStudentProfile,
		PermBookLesson,
		PermCancelLesson,
		PermStudentBookings,
	),
	RoleTeacher: permissionSet(
		PermTeacherProfile,
		PermTeacherLessons,
		PermManageOwnLessons,
	),
	RoleAdmin: permissionSet(
		PermStudentProfile,
		PermBookLesson,
		PermCancelLesson,
		PermStudentBookings,
		PermTeacherProfile,
		PermTeacherLessons,
		PermManageOwnLessons,
		PermAdminProfile,
		PermManageAccounts,
		PermViewAnalytics,
	),
}

// Can is the single authorization decision point for role-gated actions.
func Can(role UserRole, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, allowed := perms[perm]
	return allowed
}

func permissionSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}
