package models

import "time"

// TeacherProfile is the per-teacher record joined to an account by email.
type TeacherProfile struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Instrument       string    `db:"instrument" json:"instrument"`
	HourlyRate       float64   `db:"hourly_rate" json:"hourly_rate"`
	AvailabilityText string    `db:"availability_text" json:"availability_text"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
