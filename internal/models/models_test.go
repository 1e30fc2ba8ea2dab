package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyAdminCanDoEverything(t *testing.T) {
	for _, perm := range []Permission{
		PermStudentProfile, PermBookLesson, PermCancelLesson, PermStudentBookings,
		PermTeacherProfile, PermTeacherLessons, PermManageOwnLessons,
		PermAdminProfile, PermManageAccounts, PermViewAnalytics,
	} {
		assert.True(t, Can(RoleAdmin, perm), perm)
	}
}

func TestPolicySeparatesStudentsAndTeachers(t *testing.T) {
	assert.True(t, Can(RoleStudent, PermBookLesson))
	assert.False(t, Can(RoleStudent, PermTeacherLessons))
	assert.False(t, Can(RoleStudent, PermViewAnalytics))

	assert.True(t, Can(RoleTeacher, PermTeacherLessons))
	assert.False(t, Can(RoleTeacher, PermBookLesson))
	assert.False(t, Can(RoleTeacher, PermManageAccounts))

	assert.False(t, Can(UserRole("superuser"), PermBookLesson))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Teacher ")
	assert.True(t, ok)
	assert.Equal(t, RoleTeacher, role)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestLessonStatus(t *testing.T) {
	start := time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)
	lesson := &Lesson{StartsAt: start, EndsAt: start.Add(time.Hour)}

	assert.Equal(t, LessonStatusOpen, lesson.Status(start))

	student := "s1"
	lesson.StudentID = &student
	assert.Equal(t, LessonStatusBooked, lesson.Status(start.Add(30*time.Minute)))
	assert.Equal(t, LessonStatusCompleted, lesson.Status(start.Add(2*time.Hour)))
	assert.Equal(t, "2030-03-01 10:00 - 2030-03-01 11:00", lesson.TimeSlot())
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "**********1234", MaskCardNumber("12345678901234"))
	assert.Equal(t, "123", MaskCardNumber("123"))
}
