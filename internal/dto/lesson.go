package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

// Accepted layouts for lesson bounds supplied by clients.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseLessonTime parses a client-supplied timestamp in any accepted layout.
func ParseLessonTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}

// ParseTimeSlot splits a "start - end" display string into its bounds.
func ParseTimeSlot(slot string) (time.Time, time.Time, error) {
	idx := strings.LastIndex(slot, " - ")
	if idx < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("time slot %q must look like \"start - end\"", slot)
	}
	start, err := ParseLessonTime(slot[:idx])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseLessonTime(slot[idx+3:])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ScheduleLessonRequest creates one open lesson for a teacher.
type ScheduleLessonRequest struct {
	TeacherID     string  `json:"teacher_id" validate:"required"`
	Start         string  `json:"start" validate:"required"`
	End           string  `json:"end" validate:"required"`
	Instrument    string  `json:"instrument" validate:"required,max=60"`
	LessonTypeNew string  `json:"lesson_type_new" validate:"required"`
	LessonType    string  `json:"lesson_type,omitempty"`
	Price         float64 `json:"price"`
	Notes         *string `json:"notes,omitempty"`
}

// BulkAvailabilityRequest inserts open lessons for many time slots.
type BulkAvailabilityRequest struct {
	TeacherID     string   `json:"teacher_id" validate:"required"`
	Instrument    string   `json:"instrument" validate:"required,max=60"`
	TimeSlots     []string `json:"time_slots" validate:"required,min=1,dive,required"`
	Price         float64  `json:"price"`
	LessonTypeNew string   `json:"lesson_type_new,omitempty"`
}

// BulkAvailabilityResponse reports how many slots were inserted.
type BulkAvailabilityResponse struct {
	Inserted  int `json:"inserted"`
	Requested int `json:"requested"`
}

// UpdateLessonRequest edits a lesson owned by a teacher.
type UpdateLessonRequest struct {
	Start         string  `json:"start" validate:"required"`
	End           string  `json:"end" validate:"required"`
	Instrument    string  `json:"instrument" validate:"required,max=60"`
	LessonTypeNew string  `json:"lesson_type_new" validate:"required"`
	Price         float64 `json:"price"`
	Notes         *string `json:"notes,omitempty"`
}

// BookLessonRequest books an open lesson for the caller.
type BookLessonRequest struct {
	LessonID          string  `json:"lesson_id" form:"lesson_id" validate:"required"`
	StudentChosenType string  `json:"student_chosen_type,omitempty" form:"student_chosen_type"`
	SpecialRequests   *string `json:"special_requests,omitempty" form:"special_requests"`
}

// CancelLessonRequest releases a lesson booked by the caller.
type CancelLessonRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
}

// BookingResult is returned after a successful booking.
type BookingResult struct {
	LessonID          string            `json:"lesson_id"`
	StudentID         string            `json:"student_id"`
	StudentChosenType models.LessonType `json:"student_chosen_type"`
	TimeSlot          string            `json:"time_slot"`
	Price             float64           `json:"price"`
	SheetMusicPath    *string           `json:"sheet_music_path,omitempty"`
}

// VerifyCardRequest carries card fields for structural validation.
type VerifyCardRequest struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	Pin        string `json:"pin"`
}

// VerifyCardResponse returns the masked card number.
type VerifyCardResponse struct {
	MaskedNumber string `json:"masked_number"`
}

// LessonView is the presentation shape of a lesson.
type LessonView struct {
	models.Lesson
	TimeSlot  string              `json:"time_slot"`
	Status    models.LessonStatus `json:"status"`
	NotesHTML string              `json:"notes_html,omitempty"`
}
