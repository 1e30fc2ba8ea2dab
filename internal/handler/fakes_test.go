package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/internal/service"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
)

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeTokens map[string]*models.JWTClaims

func (f fakeTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type fakeAuthService struct {
	signupErr error
	loginErr  error
	lastLogin models.LoginRequest
}

func (f *fakeAuthService) Signup(_ context.Context, req models.SignupRequest) (*models.SignupResponse, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &models.SignupResponse{AccountID: "acc-1", Email: req.Email, Role: models.UserRole(req.Role)}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{Token: "signed", AccountID: "acc-1", Email: req.Email, Role: models.RoleStudent, ExpiresIn: 3600}, nil
}

type fakeStudentProfiles struct {
	profile   *models.StudentProfile
	deleted   []string
	createErr error
}

func (f *fakeStudentProfiles) Get(_ context.Context, email string) (*models.StudentProfile, error) {
	if f.profile == nil || f.profile.Email != email {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
	}
	return f.profile, nil
}

func (f *fakeStudentProfiles) Create(_ context.Context, email string, req dto.StudentProfileRequest) (*models.StudentProfile, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.profile = &models.StudentProfile{ID: "stu-1", Email: email, Name: req.Name, CardNumber: req.CardNumber, Instrument: req.Instrument}
	return f.profile, nil
}

func (f *fakeStudentProfiles) Update(ctx context.Context, email string, req dto.StudentProfileRequest) (*models.StudentProfile, error) {
	profile, err := f.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	profile.Name = req.Name
	return profile, nil
}

func (f *fakeStudentProfiles) Delete(_ context.Context, email string) error {
	f.deleted = append(f.deleted, email)
	return nil
}

type fakeTeacherProfiles struct {
	profile *models.TeacherProfile
}

func (f *fakeTeacherProfiles) Get(_ context.Context, email string) (*models.TeacherProfile, error) {
	if f.profile == nil || f.profile.Email != email {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
	}
	return f.profile, nil
}

func (f *fakeTeacherProfiles) Create(_ context.Context, email string, req dto.TeacherProfileRequest) (*models.TeacherProfile, error) {
	f.profile = &models.TeacherProfile{ID: "tch-1", Email: email, Name: req.Name, Instrument: req.Instrument, HourlyRate: req.HourlyRate}
	return f.profile, nil
}

func (f *fakeTeacherProfiles) Update(ctx context.Context, email string, req dto.TeacherProfileRequest) (*models.TeacherProfile, error) {
	profile, err := f.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	profile.HourlyRate = req.HourlyRate
	return profile, nil
}

func (f *fakeTeacherProfiles) Delete(context.Context, string) error { return nil }

// fakeLessons serves both the student and the teacher lesson interfaces.
type fakeLessons struct {
	mu         sync.Mutex
	available  []dto.LessonView
	bookErr    error
	cancelErr  error
	ownerErr   error
	lastBook   dto.BookLessonRequest
	lastUpload []byte
	uploadName string
	deleted    []string
	legacy     []string
}

func (f *fakeLessons) ListAvailable(_ context.Context, instrument string) ([]dto.LessonView, error) {
	out := make([]dto.LessonView, 0, len(f.available))
	for _, lesson := range f.available {
		if instrument == "" || lesson.Instrument == instrument {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (f *fakeLessons) Book(_ context.Context, _ string, req dto.BookLessonRequest, upload *service.SheetMusicUpload) (*dto.BookingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBook = req
	if upload != nil {
		f.uploadName = upload.Filename
		f.lastUpload, _ = io.ReadAll(upload.Content)
	}
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &dto.BookingResult{LessonID: req.LessonID, StudentID: "stu-1", StudentChosenType: models.LessonTypeVirtual, Price: 50}, nil
}

func (f *fakeLessons) Cancel(context.Context, string, dto.CancelLessonRequest) error {
	return f.cancelErr
}

func (f *fakeLessons) StudentBookings(context.Context, string) ([]dto.LessonView, error) {
	return []dto.LessonView{}, nil
}

func (f *fakeLessons) TeacherLessons(context.Context, string) ([]dto.LessonView, error) {
	return f.available, nil
}

func (f *fakeLessons) UpdateOwnLesson(_ context.Context, _, lessonID string, req dto.UpdateLessonRequest) (*dto.LessonView, error) {
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	return &dto.LessonView{Lesson: models.Lesson{ID: lessonID, Instrument: req.Instrument}}, nil
}

func (f *fakeLessons) DeleteOwnLesson(_ context.Context, _, lessonID string) error {
	if f.ownerErr != nil {
		return f.ownerErr
	}
	f.deleted = append(f.deleted, lessonID)
	return nil
}

func (f *fakeLessons) Schedule(_ context.Context, req dto.ScheduleLessonRequest) (*dto.LessonView, error) {
	return &dto.LessonView{Lesson: models.Lesson{ID: "lesson-new", Instrument: req.Instrument}}, nil
}

func (f *fakeLessons) SetBulkAvailability(_ context.Context, req dto.BulkAvailabilityRequest) (*dto.BulkAvailabilityResponse, error) {
	return &dto.BulkAvailabilityResponse{Inserted: len(req.TimeSlots), Requested: len(req.TimeSlots)}, nil
}

func (f *fakeLessons) LegacyUpdateLesson(_ context.Context, lessonID string, req dto.UpdateLessonRequest) (*dto.LessonView, error) {
	f.legacy = append(f.legacy, lessonID)
	return &dto.LessonView{Lesson: models.Lesson{ID: lessonID, Instrument: req.Instrument}}, nil
}

func (f *fakeLessons) LegacyDeleteLesson(_ context.Context, lessonID string) error {
	f.legacy = append(f.legacy, lessonID)
	return nil
}

type fakeAdminService struct {
	accounts   []models.Account
	lastRole   string
	lastCaller string
	deleteErr  error
}

func (f *fakeAdminService) Get(_ context.Context, accountID string) (*models.Account, error) {
	return &models.Account{ID: accountID, Email: "admin@example.com", Role: models.RoleAdmin, PasswordHash: "secret-hash"}, nil
}

func (f *fakeAdminService) Update(ctx context.Context, accountID string, req dto.AdminProfileUpdateRequest) (*models.Account, error) {
	account, _ := f.Get(ctx, accountID)
	account.OutreachSource = req.OutreachSource
	return account, nil
}

func (f *fakeAdminService) ListAccounts(_ context.Context, rawRole, _ string) ([]models.Account, error) {
	f.lastRole = rawRole
	return f.accounts, nil
}

func (f *fakeAdminService) DeleteAccount(_ context.Context, callerID, _ string) error {
	f.lastCaller = callerID
	return f.deleteErr
}

type fakeAnalytics struct {
	hit      bool
	lastYear *int
}

func (f *fakeAnalytics) RevenueByQuarter(_ context.Context, year *int) (*models.RevenueByQuarterReport, bool, error) {
	f.lastYear = year
	return &models.RevenueByQuarterReport{Year: year, Total: 150}, f.hit, nil
}

func (f *fakeAnalytics) InstrumentPopularity(context.Context) ([]models.InstrumentPopularity, bool, error) {
	return []models.InstrumentPopularity{{Instrument: "Piano", Lessons: 3, Revenue: 150}}, f.hit, nil
}

func (f *fakeAnalytics) OutreachBreakdown(context.Context) ([]models.OutreachBreakdown, bool, error) {
	return nil, f.hit, nil
}

func (f *fakeAnalytics) UserCounts(context.Context) ([]models.RoleCount, bool, error) {
	return []models.RoleCount{{Role: models.RoleAdmin, Count: 1}}, f.hit, nil
}

func (f *fakeAnalytics) SecondLessonRate(context.Context) (*models.SecondLessonReport, bool, error) {
	return &models.SecondLessonReport{StudentsWithLesson: 2, StudentsWithSecondLesson: 1, Percentage: 50}, f.hit, nil
}

func (f *fakeAnalytics) SystemMetrics() models.AnalyticsSystemMetrics {
	return models.AnalyticsSystemMetrics{RequestsTotal: 7}
}

type fakeExports struct {
	lastReport string
	lastFormat string
}

func (f *fakeExports) Export(_ context.Context, report, format string, _ *int) (*service.ExportFile, error) {
	f.lastReport, f.lastFormat = report, format
	if report == "unknown" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown report")
	}
	return &service.ExportFile{Filename: report + ".csv", ContentType: "text/csv", Body: []byte("a,b\n1,2\n")}, nil
}

func newTestRouter(tokens TokenValidator, h Handlers, opts RouteOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api"), tokens, h, opts)
	return router
}
