package models

import (
	"fmt"
	"time"
)

// LessonType describes how a lesson is delivered.
type LessonType string

const (
	LessonTypeInPerson          LessonType = "In-Person"
	LessonTypeVirtual           LessonType = "Virtual"
	LessonTypeStudentPreference LessonType = "Student Preference"
)

// Valid reports whether t is one of the three lesson types.
func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeInPerson, LessonTypeVirtual, LessonTypeStudentPreference:
		return true
	}
	return false
}

// Resolvable reports whether t can be the outcome of a student preference.
func (t LessonType) Resolvable() bool {
	return t == LessonTypeInPerson || t == LessonTypeVirtual
}

// LessonStatus is derived from occupancy and time, never stored.
type LessonStatus string

const (
	LessonStatusOpen      LessonStatus = "Open"
	LessonStatusBooked    LessonStatus = "Booked"
	LessonStatusCompleted LessonStatus = "Completed"
)

// Cancellation reasons written to the audit log.
const (
	CancelReasonStudent         = "Student cancellation"
	CancelReasonTeacherDeletion = "Teacher deletion"
	CancelReasonStudentDeletion = "Student deletion"
)

// DefaultLessonPrice applies when a non-positive price is supplied.
const DefaultLessonPrice = 50.0

// TimeSlotLayout formats lesson bounds for display.
const TimeSlotLayout = "2006-01-02 15:04"

// Lesson is a bookable slot; StudentID nil means the slot is open.
type Lesson struct {
	ID                 string      `db:"id" json:"id"`
	TeacherID          string      `db:"teacher_id" json:"teacher_id"`
	StudentID          *string     `db:"student_id" json:"student_id,omitempty"`
	Instrument         string      `db:"instrument" json:"instrument"`
	LegacyLessonType   *string     `db:"legacy_lesson_type" json:"legacy_lesson_type,omitempty"`
	LessonTypeNew      LessonType  `db:"lesson_type_new" json:"lesson_type_new"`
	StudentChosenType  *LessonType `db:"student_chosen_type" json:"student_chosen_type,omitempty"`
	StartsAt           time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt             time.Time   `db:"ends_at" json:"ends_at"`
	Price              float64     `db:"price" json:"price"`
	Notes              *string     `db:"notes" json:"notes,omitempty"`
	SpecialRequests    *string     `db:"special_requests" json:"special_requests,omitempty"`
	SheetMusicFilename *string     `db:"sheet_music_filename" json:"sheet_music_filename,omitempty"`
	SheetMusicPath     *string     `db:"sheet_music_path" json:"sheet_music_path,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// Booked reports whether a student occupies the lesson.
func (l *Lesson) Booked() bool {
	return l.StudentID != nil && *l.StudentID != ""
}

// Status derives the lifecycle state at the given instant.
func (l *Lesson) Status(now time.Time) LessonStatus {
	if !l.Booked() {
		return LessonStatusOpen
	}
	if now.After(l.EndsAt) {
		return LessonStatusCompleted
	}
	return LessonStatusBooked
}

// TimeSlot renders the "start - end" display string.
func (l *Lesson) TimeSlot() string {
	return FormatTimeSlot(l.StartsAt, l.EndsAt)
}

// FormatTimeSlot renders a start/end pair as "start - end".
func FormatTimeSlot(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format(TimeSlotLayout), end.Format(TimeSlotLayout))
}

// LessonBooking carries the fields written by a successful booking.
type LessonBooking struct {
	LessonID           string
	StudentID          string
	StudentChosenType  LessonType
	SpecialRequests    *string
	SheetMusicFilename *string
	SheetMusicPath     *string
}

// LessonUpdate carries mutable lesson fields edited by teachers.
type LessonUpdate struct {
	Instrument    string
	LessonTypeNew LessonType
	StartsAt      time.Time
	EndsAt        time.Time
	Price         float64
	Notes         *string
}

// LessonFilter scopes lesson listings.
type LessonFilter struct {
	Instrument string
	After      time.Time
}

// CancellationLog is an append-only audit row written whenever an occupant is cleared.
type CancellationLog struct {
	ID          int64     `db:"id" json:"id"`
	LessonID    string    `db:"lesson_id" json:"lesson_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	CancelledAt time.Time `db:"cancelled_at" json:"cancelled_at"`
	Reason      string    `db:"reason" json:"reason"`
}
