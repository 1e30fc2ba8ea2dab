package models

import "time"

// StudentProfile is the per-student record joined to an account by email.
type StudentProfile struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	CardNumber string    `db:"card_number" json:"-"`
	CardExpiry string    `db:"card_expiry" json:"card_expiry"`
	Instrument string    `db:"instrument" json:"instrument"`
	Pin        string    `db:"pin" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MaskedCard returns the card number reduced to its last four digits.
func (p StudentProfile) MaskedCard() string {
	return MaskCardNumber(p.CardNumber)
}

// MaskCardNumber replaces all but the last four characters with '*'.
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number))
	for i := range masked {
		if i < len(number)-4 {
			masked[i] = '*'
			continue
		}
		masked[i] = number[i]
	}
	return string(masked)
}
