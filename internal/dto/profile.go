package dto

import (
	"time"

	"github.com/noah-isme/music-lessons-api/internal/models"
)

// StudentProfileRequest is the create/update payload for student profiles.
type StudentProfileRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	CardNumber string `json:"card_number" validate:"required,numeric,min=12,max=19"`
	CardExpiry string `json:"card_expiry" validate:"required,len=5"`
	Instrument string `json:"instrument" validate:"required,max=60"`
	Pin        string `json:"pin" validate:"required,numeric,min=3,max=4"`
}

// StudentProfileResponse exposes a student profile with the card masked.
type StudentProfileResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CardNumber string    `json:"card_number"`
	CardExpiry string    `json:"card_expiry"`
	Instrument string    `json:"instrument"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewStudentProfileResponse builds the masked view of a profile.
func NewStudentProfileResponse(p *models.StudentProfile) StudentProfileResponse {
	return StudentProfileResponse{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		CardNumber: p.MaskedCard(),
		CardExpiry: p.CardExpiry,
		Instrument: p.Instrument,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// TeacherProfileRequest is the create/update payload for teacher profiles.
type TeacherProfileRequest struct {
	Name             string  `json:"name" validate:"required,max=120"`
	Instrument       string  `json:"instrument" validate:"required,max=60"`
	HourlyRate       float64 `json:"hourly_rate" validate:"gte=20,lte=200"`
	AvailabilityText string  `json:"availability_text" validate:"max=2000"`
}

// AdminProfileUpdateRequest edits the caller's admin account.
type AdminProfileUpdateRequest struct {
	OutreachSource string `json:"outreach_source"`
	CurrentPin     string `json:"current_pin"`
	NewPin         string `json:"new_pin" validate:"omitempty,numeric,min=4,max=8"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
	OutreachSource string          `json:"outreach_source"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewAccountResponse strips credentials from an account.
func NewAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		Email:          a.Email,
		Role:           a.Role,
		OutreachSource: a.OutreachSource,
		CreatedAt:      a.CreatedAt,
	}
}
