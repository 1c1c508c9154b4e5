package utils

import (
	"fmt"
	"regexp"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateMiles validates a trip's recorded mileage.
func ValidateMiles(miles float64) error {
	if miles <= 0 {
		return fmt.Errorf("miles must be positive: %.1f", miles)
	}
	if miles > 1000 {
		return fmt.Errorf("miles exceeds single-trip limit: %.1f", miles)
	}
	return nil
}

// ValidatePeriod validates a voucher reporting period.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12: %d", month)
	}
	if year < 2000 || year > time.Now().Year()+1 {
		return fmt.Errorf("year out of range: %d", year)
	}
	return nil
}

// ValidateTripDate validates a trip date in YYYY-MM-DD form.
func ValidateTripDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid trip date %q, expected YYYY-MM-DD", date)
	}
	return nil
}
