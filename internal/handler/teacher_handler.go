package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/pkg/response"
)

type teacherProfileService interface {
	Get(ctx context.Context, email string) (*models.TeacherProfile, error)
	Create(ctx context.Context, email string, req dto.TeacherProfileRequest) (*models.TeacherProfile, error)
	Update(ctx context.Context, email string, req dto.TeacherProfileRequest) (*models.TeacherProfile, error)
	Delete(ctx context.Context, email string) error
}

type teacherLessonService interface {
	TeacherLessons(ctx context.Context, email string) ([]dto.LessonView, error)
	UpdateOwnLesson(ctx context.Context, email, lessonID string, req dto.UpdateLessonRequest) (*dto.LessonView, error)
	DeleteOwnLesson(ctx context.Context, email, lessonID string) error
	Schedule(ctx context.Context, req dto.ScheduleLessonRequest) (*dto.LessonView, error)
	SetBulkAvailability(ctx context.Context, req dto.BulkAvailabilityRequest) (*dto.BulkAvailabilityResponse, error)
	LegacyUpdateLesson(ctx context.Context, lessonID string, req dto.UpdateLessonRequest) (*dto.LessonView, error)
	LegacyDeleteLesson(ctx context.Context, lessonID string) error
}

// TeacherHandler serves the teacher profile and lesson management endpoints.
type TeacherHandler struct {
	profiles teacherProfileService
	lessons  teacherLessonService
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(profiles teacherProfileService, lessons teacherLessonService) *TeacherHandler {
	return &TeacherHandler{profiles: profiles, lessons: lessons}
}

// GetProfile godoc
// @Summary Get the caller's teacher profile
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/profile [get]
func (h *TeacherHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// CreateProfile godoc
// @Summary Create the caller's teacher profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TeacherProfileRequest true "Profile"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/profile [post]
func (h *TeacherHandler) CreateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.TeacherProfileRequest
	if !bindJSON(c, &req, "teacher profile") {
		return
	}
	profile, err := h.profiles.Create(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// UpdateProfile godoc
// @Summary Update the caller's teacher profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TeacherProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /teacher/profile [put]
func (h *TeacherHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.TeacherProfileRequest
	if !bindJSON(c, &req, "teacher profile") {
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// DeleteProfile godoc
// @Summary Delete the caller's teacher profile and its lessons
// @Tags Teachers
// @Security BearerAuth
// @Success 204
// @Router /teacher/profile [delete]
func (h *TeacherHandler) DeleteProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Lessons godoc
// @Summary List the caller's lessons
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teacher/lessons [get]
func (h *TeacherHandler) Lessons(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	lessons, err := h.lessons.TeacherLessons(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, map[string]interface{}{"count": len(lessons)})
}

// UpdateLesson godoc
// @Summary Edit one of the caller's lessons
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/lessons/{id} [put]
func (h *TeacherHandler) UpdateLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.UpdateLessonRequest
	if !bindJSON(c, &req, "lesson") {
		return
	}
	lesson, err := h.lessons.UpdateOwnLesson(c.Request.Context(), claims.Email, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// DeleteLesson godoc
// @Summary Delete one of the caller's lessons
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /teacher/lessons/{id} [delete]
func (h *TeacherHandler) DeleteLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	if err := h.lessons.DeleteOwnLesson(c.Request.Context(), claims.Email, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Schedule godoc
// @Summary Create an open lesson
// @Description Unauthenticated legacy route.
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleLessonRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/schedule [post]
func (h *TeacherHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleLessonRequest
	if !bindJSON(c, &req, "lesson") {
		return
	}
	lesson, err := h.lessons.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Availability godoc
// @Summary Open lessons for many time slots
// @Description Unauthenticated legacy route. Slots the teacher already has open are skipped.
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body dto.BulkAvailabilityRequest true "Slots"
// @Success 201 {object} response.Envelope
// @Router /teacher/availability [post]
func (h *TeacherHandler) Availability(c *gin.Context) {
	var req dto.BulkAvailabilityRequest
	if !bindJSON(c, &req, "availability") {
		return
	}
	res, err := h.lessons.SetBulkAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// LegacyUpdateLesson godoc
// @Summary Edit any lesson by id
// @Description Unauthenticated legacy route without an ownership check.
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Router /teacher/lesson/{id} [put]
func (h *TeacherHandler) LegacyUpdateLesson(c *gin.Context) {
	var req dto.UpdateLessonRequest
	if !bindJSON(c, &req, "lesson") {
		return
	}
	lesson, err := h.lessons.LegacyUpdateLesson(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson)
}

// LegacyDeleteLesson godoc
// @Summary Delete any lesson by id
// @Description Unauthenticated legacy route without an ownership check.
// @Tags Teachers
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /teacher/lesson/{id} [delete]
func (h *TeacherHandler) LegacyDeleteLesson(c *gin.Context) {
	if err := h.lessons.LegacyDeleteLesson(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
