package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/markup"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListAvailable(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Lesson, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	CreateIfAbsent(ctx context.Context, lessons []models.Lesson) (int, error)
	Update(ctx context.Context, id string, update models.LessonUpdate) error
	Book(ctx context.Context, booking models.LessonBooking) (bool, error)
	Cancel(ctx context.Context, lessonID, studentID, reason string) (*string, error)
	Delete(ctx context.Context, lessonID, reason string) (*string, error)
}

type studentLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.StudentProfile, error)
}

type teacherLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.TeacherProfile, error)
	FindByID(ctx context.Context, id string) (*models.TeacherProfile, error)
}

// LessonService runs the lesson catalog and the booking workflow.
type LessonService struct {
	lessons    lessonRepository
	students   studentLookup
	teachers   teacherLookup
	sheetMusic *SheetMusicService
	cache      cacheInvalidator
	metrics    *MetricsService
	markdown   *markup.Renderer
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewLessonService constructs a LessonService.
func NewLessonService(
	lessons lessonRepository,
	students studentLookup,
	teachers teacherLookup,
	sheetMusic *SheetMusicService,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *LessonService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{
		lessons:    lessons,
		students:   students,
		teachers:   teachers,
		sheetMusic: sheetMusic,
		cache:      cache,
		metrics:    metrics,
		markdown:   markup.NewRenderer(),
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// View renders a lesson for API responses.
func (s *LessonService) View(lesson models.Lesson) dto.LessonView {
	view := dto.LessonView{
		Lesson:   lesson,
		TimeSlot: lesson.TimeSlot(),
		Status:   lesson.Status(s.now()),
	}
	if lesson.Notes != nil {
		view.NotesHTML = s.markdown.HTML(*lesson.Notes)
	}
	return view
}

func (s *LessonService) views(lessons []models.Lesson) []dto.LessonView {
	out := make([]dto.LessonView, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, s.View(lesson))
	}
	return out
}

// ListAvailable returns open lessons in the future, optionally for one instrument.
func (s *LessonService) ListAvailable(ctx context.Context, instrument string) ([]dto.LessonView, error) {
	lessons, err := s.lessons.ListAvailable(ctx, models.LessonFilter{Instrument: instrument, After: s.now().UTC()})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list available lessons")
	}
	return s.views(lessons), nil
}

func (s *LessonService) student(ctx context.Context, email string) (*models.StudentProfile, error) {
	profile, err := s.students.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found, create a profile first")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	return profile, nil
}

func (s *LessonService) teacherByEmail(ctx context.Context, email string) (*models.TeacherProfile, error) {
	profile, err := s.teachers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found, create a profile first")
		}
		return nil, appErrors.Internal(err, "failed to load teacher profile")
	}
	return profile, nil
}

func (s *LessonService) requireTeacher(ctx context.Context, teacherID string) error {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Internal(err, "failed to load teacher")
	}
	return nil
}

func bookedRetype() error {
	return appErrors.Clone(appErrors.ErrConflict, "cannot change the lesson type of a booked lesson")
}

func (s *LessonService) lesson(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Internal(err, "failed to load lesson")
	}
	return lesson, nil
}

// resolveLessonType returns the delivery type a booking records.
func resolveLessonType(lesson *models.Lesson, requested string) (models.LessonType, error) {
	if lesson.LessonTypeNew != models.LessonTypeStudentPreference {
		return lesson.LessonTypeNew, nil
	}
	chosen := models.LessonType(strings.TrimSpace(requested))
	if !chosen.Resolvable() {
		return "", validationError("student_chosen_type must be In-Person or Virtual for Student Preference lessons")
	}
	return chosen, nil
}

// Book assigns an open lesson to the caller's student profile. Sheet music, when
// present, is stored first and removed again if the booking does not land.
func (s *LessonService) Book(ctx context.Context, email string, req dto.BookLessonRequest, upload *SheetMusicUpload) (*dto.BookingResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "booking")
	}
	student, err := s.student(ctx, email)
	if err != nil {
		return nil, err
	}
	lesson, err := s.lesson(ctx, req.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Booked() {
		s.metrics.RecordBooking(BookingOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrAlreadyBooked, "lesson is already booked")
	}
	chosen, err := resolveLessonType(lesson, req.StudentChosenType)
	if err != nil {
		return nil, err
	}

	booking := models.LessonBooking{
		LessonID:          lesson.ID,
		StudentID:         student.ID,
		StudentChosenType: chosen,
		SpecialRequests:   req.SpecialRequests,
	}
	if upload != nil {
		if s.sheetMusic == nil {
			return nil, validationError("sheet music uploads are not enabled")
		}
		stored, err := s.sheetMusic.Store(ctx, *upload)
		if err != nil {
			return nil, err
		}
		booking.SheetMusicFilename = &stored.OriginalName
		booking.SheetMusicPath = &stored.Path
	}

	ok, err := s.lessons.Book(ctx, booking)
	if err != nil || !ok {
		if booking.SheetMusicPath != nil {
			s.sheetMusic.Remove(ctx, *booking.SheetMusicPath)
		}
		if err != nil {
			return nil, appErrors.Internal(err, "failed to book lesson")
		}
		s.metrics.RecordBooking(BookingOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrAlreadyBooked, "lesson is already booked")
	}

	s.metrics.RecordBooking(BookingOutcomeBooked)
	invalidateAnalytics(ctx, s.cache, s.logger)
	s.logger.Info("lesson booked", zap.String("lesson_id", lesson.ID), zap.String("student_id", student.ID))
	return &dto.BookingResult{
		LessonID:          lesson.ID,
		StudentID:         student.ID,
		StudentChosenType: chosen,
		TimeSlot:          lesson.TimeSlot(),
		Price:             lesson.Price,
		SheetMusicPath:    booking.SheetMusicPath,
	}, nil
}

// Cancel releases a lesson booked by the caller and records the cancellation.
func (s *LessonService) Cancel(ctx context.Context, email string, req dto.CancelLessonRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return invalidPayload(err, "cancellation")
	}
	student, err := s.student(ctx, email)
	if err != nil {
		return err
	}
	lesson, err := s.lesson(ctx, req.LessonID)
	if err != nil {
		return err
	}
	notYours := appErrors.Clone(appErrors.ErrForbidden, "you can only cancel your own bookings")
	if !lesson.Booked() || *lesson.StudentID != student.ID {
		return notYours
	}

	path, err := s.lessons.Cancel(ctx, lesson.ID, student.ID, models.CancelReasonStudent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notYours
		}
		return appErrors.Internal(err, "failed to cancel lesson")
	}
	if path != nil {
		s.sheetMusic.Remove(ctx, *path)
	}
	s.metrics.RecordBooking(BookingOutcomeCancelled)
	invalidateAnalytics(ctx, s.cache, s.logger)
	s.logger.Info("lesson cancelled", zap.String("lesson_id", lesson.ID), zap.String("student_id", student.ID))
	return nil
}

// StudentBookings lists the caller's booked lessons with their derived status.
func (s *LessonService) StudentBookings(ctx context.Context, email string) ([]dto.LessonView, error) {
	student, err := s.student(ctx, email)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list bookings")
	}
	return s.views(lessons), nil
}

// TeacherLessons lists every lesson owned by the caller's teacher profile.
func (s *LessonService) TeacherLessons(ctx context.Context, email string) ([]dto.LessonView, error) {
	teacher, err := s.teacherByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list lessons")
	}
	return s.views(lessons), nil
}

func lessonBounds(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := dto.ParseLessonTime(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("start: " + err.Error())
	}
	end, err := dto.ParseLessonTime(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, validationError("end: " + err.Error())
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, validationError("lesson start must be before its end")
	}
	return start, end, nil
}

func lessonPrice(price float64) float64 {
	if price <= 0 {
		return models.DefaultLessonPrice
	}
	return price
}

func parseLessonType(raw string) (models.LessonType, error) {
	lessonType := models.LessonType(strings.TrimSpace(raw))
	if !lessonType.Valid() {
		return "", validationError("lesson_type_new must be In-Person, Virtual or Student Preference")
	}
	return lessonType, nil
}

// Schedule creates one open lesson for a teacher.
func (s *LessonService) Schedule(ctx context.Context, req dto.ScheduleLessonRequest) (*dto.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "lesson")
	}
	start, end, err := lessonBounds(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	lessonType, err := parseLessonType(req.LessonTypeNew)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	lesson := models.Lesson{
		TeacherID:     req.TeacherID,
		Instrument:    strings.TrimSpace(req.Instrument),
		LessonTypeNew: lessonType,
		StartsAt:      start,
		EndsAt:        end,
		Price:         lessonPrice(req.Price),
		Notes:         req.Notes,
	}
	if legacy := strings.TrimSpace(req.LessonType); legacy != "" {
		lesson.LegacyLessonType = &legacy
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return nil, appErrors.Internal(err, "failed to schedule lesson")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	view := s.View(lesson)
	return &view, nil
}

// SetBulkAvailability opens one lesson per time slot, skipping slots the teacher
// already has open.
func (s *LessonService) SetBulkAvailability(ctx context.Context, req dto.BulkAvailabilityRequest) (*dto.BulkAvailabilityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "availability")
	}
	lessonType := models.LessonTypeInPerson
	if req.LessonTypeNew != "" {
		parsed, err := parseLessonType(req.LessonTypeNew)
		if err != nil {
			return nil, err
		}
		lessonType = parsed
	}

	lessons := make([]models.Lesson, 0, len(req.TimeSlots))
	for _, slot := range req.TimeSlots {
		start, end, err := dto.ParseTimeSlot(slot)
		if err != nil {
			return nil, validationError(err.Error())
		}
		if !start.Before(end) {
			return nil, validationError("time slot " + slot + " ends before it starts")
		}
		lessons = append(lessons, models.Lesson{
			TeacherID:     req.TeacherID,
			Instrument:    strings.TrimSpace(req.Instrument),
			LessonTypeNew: lessonType,
			StartsAt:      start,
			EndsAt:        end,
			Price:         lessonPrice(req.Price),
		})
	}
	if err := s.requireTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	inserted, err := s.lessons.CreateIfAbsent(ctx, lessons)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to set availability")
	}
	if inserted > 0 {
		invalidateAnalytics(ctx, s.cache, s.logger)
	}
	return &dto.BulkAvailabilityResponse{Inserted: inserted, Requested: len(lessons)}, nil
}

func (s *LessonService) ownedLesson(ctx context.Context, email, lessonID string) (*models.Lesson, error) {
	teacher, err := s.teacherByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.TeacherID != teacher.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lesson belongs to another teacher")
	}
	return lesson, nil
}

// UpdateOwnLesson edits a lesson owned by the caller's teacher profile.
func (s *LessonService) UpdateOwnLesson(ctx context.Context, email, lessonID string, req dto.UpdateLessonRequest) (*dto.LessonView, error) {
	if _, err := s.ownedLesson(ctx, email, lessonID); err != nil {
		return nil, err
	}
	return s.LegacyUpdateLesson(ctx, lessonID, req)
}

// DeleteOwnLesson removes a lesson owned by the caller's teacher profile.
func (s *LessonService) DeleteOwnLesson(ctx context.Context, email, lessonID string) error {
	if _, err := s.ownedLesson(ctx, email, lessonID); err != nil {
		return err
	}
	return s.LegacyDeleteLesson(ctx, lessonID)
}

// LegacyUpdateLesson edits any lesson by id without an ownership check.
func (s *LessonService) LegacyUpdateLesson(ctx context.Context, lessonID string, req dto.UpdateLessonRequest) (*dto.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "lesson")
	}
	start, end, err := lessonBounds(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	lessonType, err := parseLessonType(req.LessonTypeNew)
	if err != nil {
		return nil, err
	}
	current, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if current.Booked() && current.LessonTypeNew != lessonType {
		return nil, bookedRetype()
	}

	update := models.LessonUpdate{
		Instrument:    strings.TrimSpace(req.Instrument),
		LessonTypeNew: lessonType,
		StartsAt:      start,
		EndsAt:        end,
		Price:         lessonPrice(req.Price),
		Notes:         req.Notes,
	}
	if err := s.lessons.Update(ctx, lessonID, update); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to update lesson")
		}
		// Booked or removed since it was read.
		if _, err := s.lesson(ctx, lessonID); err != nil {
			return nil, err
		}
		return nil, bookedRetype()
	}
	invalidateAnalytics(ctx, s.cache, s.logger)

	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	view := s.View(*lesson)
	return &view, nil
}

// LegacyDeleteLesson removes any lesson by id without an ownership check.
// A booked lesson is logged as a teacher deletion first.
func (s *LessonService) LegacyDeleteLesson(ctx context.Context, lessonID string) error {
	path, err := s.lessons.Delete(ctx, lessonID, models.CancelReasonTeacherDeletion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Internal(err, "failed to delete lesson")
	}
	if path != nil {
		s.sheetMusic.Remove(ctx, *path)
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	s.logger.Info("lesson deleted", zap.String("lesson_id", lessonID))
	return nil
}
