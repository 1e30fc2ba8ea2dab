package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/internal/service"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/response"
)

type studentProfileService interface {
	Get(ctx context.Context, email string) (*models.StudentProfile, error)
	Create(ctx context.Context, email string, req dto.StudentProfileRequest) (*models.StudentProfile, error)
	Update(ctx context.Context, email string, req dto.StudentProfileRequest) (*models.StudentProfile, error)
	Delete(ctx context.Context, email string) error
}

type studentLessonService interface {
	ListAvailable(ctx context.Context, instrument string) ([]dto.LessonView, error)
	Book(ctx context.Context, email string, req dto.BookLessonRequest, upload *service.SheetMusicUpload) (*dto.BookingResult, error)
	Cancel(ctx context.Context, email string, req dto.CancelLessonRequest) error
	StudentBookings(ctx context.Context, email string) ([]dto.LessonView, error)
}

// StudentHandler serves the student profile and booking endpoints.
type StudentHandler struct {
	profiles studentProfileService
	lessons  studentLessonService
	now      func() time.Time
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(profiles studentProfileService, lessons studentLessonService) *StudentHandler {
	return &StudentHandler{profiles: profiles, lessons: lessons, now: time.Now}
}

// GetProfile godoc
// @Summary Get the caller's student profile
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/profile [get]
func (h *StudentHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewStudentProfileResponse(profile))
}

// CreateProfile godoc
// @Summary Create the caller's student profile
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StudentProfileRequest true "Profile"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/profile [post]
func (h *StudentHandler) CreateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.StudentProfileRequest
	if !bindJSON(c, &req, "student profile") {
		return
	}
	profile, err := h.profiles.Create(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewStudentProfileResponse(profile))
}

// UpdateProfile godoc
// @Summary Update the caller's student profile
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StudentProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/profile [put]
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.StudentProfileRequest
	if !bindJSON(c, &req, "student profile") {
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewStudentProfileResponse(profile))
}

// DeleteProfile godoc
// @Summary Delete the caller's student profile
// @Description Releases every booking of the profile. The account itself is kept.
// @Tags Students
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /student/profile [delete]
func (h *StudentHandler) DeleteProfile(c *gin.Context) {
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

// VerifyCard godoc
// @Summary Check card field formats
// @Description Structural checks only. Nothing is charged.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.VerifyCardRequest true "Card"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/verify-card [post]
func (h *StudentHandler) VerifyCard(c *gin.Context) {
	var req dto.VerifyCardRequest
	if !bindJSON(c, &req, "card") {
		return
	}
	res, err := service.VerifyCardFormat(req.CardNumber, req.Expiry, req.Pin, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// AvailableLessons godoc
// @Summary List open lessons
// @Tags Lessons
// @Produce json
// @Param instrument query string false "Instrument, case-insensitive"
// @Success 200 {object} response.Envelope
// @Router /student/available-lessons [get]
func (h *StudentHandler) AvailableLessons(c *gin.Context) {
	lessons, err := h.lessons.ListAvailable(c.Request.Context(), c.Query("instrument"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, map[string]interface{}{"count": len(lessons)})
}

// BookLesson godoc
// @Summary Book an open lesson
// @Description Accepts JSON, or multipart form data with an optional sheet_music file.
// @Tags Lessons
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BookLessonRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/book-lesson [post]
func (h *StudentHandler) BookLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}

	var req dto.BookLessonRequest
	var upload *service.SheetMusicUpload
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking form"))
			return
		}
		header, err := c.FormFile("sheet_music")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// booking without sheet music
		case err != nil:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sheet music upload"))
			return
		default:
			file, err := header.Open()
			if err != nil {
				response.Error(c, appErrors.Internal(err, "failed to read sheet music upload"))
				return
			}
			defer file.Close()
			upload = &service.SheetMusicUpload{Filename: header.Filename, Size: header.Size, Content: file}
		}
	} else if !bindJSON(c, &req, "booking") {
		return
	}

	result, err := h.lessons.Book(c.Request.Context(), claims.Email, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// CancelLesson godoc
// @Summary Cancel one of the caller's bookings
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CancelLessonRequest true "Cancellation"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/cancel-lesson [post]
func (h *StudentHandler) CancelLesson(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.CancelLessonRequest
	if !bindJSON(c, &req, "cancellation") {
		return
	}
	if err := h.lessons.Cancel(c.Request.Context(), claims.Email, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "lesson cancelled", gin.H{"lesson_id": req.LessonID})
}

// Bookings godoc
// @Summary List the caller's bookings
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/bookings [get]
func (h *StudentHandler) Bookings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	lessons, err := h.lessons.StudentBookings(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, map[string]interface{}{"count": len(lessons)})
}
