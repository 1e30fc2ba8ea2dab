package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/middleware"
	"github.com/noah-isme/music-lessons-api/internal/models"
)

// TokenValidator validates bearer tokens for protected routes.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Auth      *AuthHandler
	Student   *StudentHandler
	Teacher   *TeacherHandler
	Admin     *AdminHandler
	Analytics *AnalyticsHandler
}

// RouteOptions toggles optional route sets.
type RouteOptions struct {
	// LegacyTeacherRoutes mounts the unauthenticated scheduling and lesson edit routes.
	LegacyTeacherRoutes bool
}

// RegisterRoutes mounts the API on api. Authentication happens per route so the
// public catalog and legacy endpoints can share path prefixes with protected ones.
func RegisterRoutes(api gin.IRouter, tokens TokenValidator, h Handlers, opts RouteOptions) {
	authn := middleware.JWT(tokens)
	guard := func(perm models.Permission) []gin.HandlerFunc {
		return []gin.HandlerFunc{authn, middleware.Authorize(perm)}
	}
	with := func(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(chain[:len(chain):len(chain)], handler)
	}

	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", authn, h.Auth.Me)

	student := api.Group("/student")
	student.GET("/available-lessons", h.Student.AvailableLessons)
	student.POST("/verify-card", h.Student.VerifyCard)
	studentProfile := guard(models.PermStudentProfile)
	student.GET("/profile", with(studentProfile, h.Student.GetProfile)...)
	student.POST("/profile", with(studentProfile, h.Student.CreateProfile)...)
	student.PUT("/profile", with(studentProfile, h.Student.UpdateProfile)...)
	student.DELETE("/profile", with(studentProfile, h.Student.DeleteProfile)...)
	student.POST("/book-lesson", with(guard(models.PermBookLesson), h.Student.BookLesson)...)
	student.POST("/cancel-lesson", with(guard(models.PermCancelLesson), h.Student.CancelLesson)...)
	student.GET("/bookings", with(guard(models.PermStudentBookings), h.Student.Bookings)...)

	teacher := api.Group("/teacher")
	teacherProfile := guard(models.PermTeacherProfile)
	teacher.GET("/profile", with(teacherProfile, h.Teacher.GetProfile)...)
	teacher.POST("/profile", with(teacherProfile, h.Teacher.CreateProfile)...)
	teacher.PUT("/profile", with(teacherProfile, h.Teacher.UpdateProfile)...)
	teacher.DELETE("/profile", with(teacherProfile, h.Teacher.DeleteProfile)...)
	teacher.GET("/lessons", with(guard(models.PermTeacherLessons), h.Teacher.Lessons)...)
	ownLessons := guard(models.PermManageOwnLessons)
	teacher.PUT("/lessons/:id", with(ownLessons, h.Teacher.UpdateLesson)...)
	teacher.DELETE("/lessons/:id", with(ownLessons, h.Teacher.DeleteLesson)...)
	if opts.LegacyTeacherRoutes {
		teacher.POST("/schedule", h.Teacher.Schedule)
		teacher.POST("/availability", h.Teacher.Availability)
		teacher.PUT("/lesson/:id", h.Teacher.LegacyUpdateLesson)
		teacher.DELETE("/lesson/:id", h.Teacher.LegacyDeleteLesson)
	}

	admin := api.Group("/admin")
	adminProfile := guard(models.PermAdminProfile)
	admin.GET("/profile", with(adminProfile, h.Admin.GetProfile)...)
	admin.PUT("/profile", with(adminProfile, h.Admin.UpdateProfile)...)
	accounts := guard(models.PermManageAccounts)
	admin.GET("/accounts", with(accounts, h.Admin.ListAccounts)...)
	admin.DELETE("/accounts/:id", with(accounts, h.Admin.DeleteAccount)...)

	analytics := admin.Group("/analytics", guard(models.PermViewAnalytics)...)
	analytics.GET("/revenue-by-quarter", h.Analytics.RevenueByQuarter)
	analytics.GET("/instrument-popularity", h.Analytics.InstrumentPopularity)
	analytics.GET("/outreach", h.Analytics.Outreach)
	analytics.GET("/user-counts", h.Analytics.UserCounts)
	analytics.GET("/second-lesson", h.Analytics.SecondLesson)
	analytics.GET("/system", h.Analytics.System)
	analytics.GET("/:report/export", h.Analytics.Export)
}

// RegisterOps mounts the unauthenticated operational endpoints on r.
func RegisterOps(r gin.IRouter, h *MetricsHandler) {
	r.GET("/metrics", h.Prometheus)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}
