package service

import (
	"regexp"
	"strconv"
	"time"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{14}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cardPinPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// VerifyCardFormat performs shape-only checks on card details. Nothing is charged and
// no issuer is contacted; a card is accepted through the last calendar day of its expiry month.
func VerifyCardFormat(number, expiry, pin string, now time.Time) (*dto.VerifyCardResponse, error) {
	if !cardNumberPattern.MatchString(number) {
		return nil, validationError("card number must be exactly 14 digits")
	}
	match := cardExpiryPattern.FindStringSubmatch(expiry)
	if match == nil {
		return nil, validationError("expiry must be in MM/YY format")
	}
	month, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[2])

	// First instant after the expiry month, in the caller's location.
	cutoff := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(cutoff) {
		return nil, validationError("card has expired")
	}
	if !cardPinPattern.MatchString(pin) {
		return nil, validationError("pin must be 3 or 4 digits")
	}
	return &dto.VerifyCardResponse{MaskedNumber: models.MaskCardNumber(number)}, nil
}
