package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/weekwise/weekwise/internal/timeutil"
)

var (
	// Validate is the shared validator instance.
	Validate *validator.Validate

	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func init() {
	Validate = validator.New()

	// Custom validators for the domain's string formats.
	if err := Validate.RegisterValidation("weekday", validateWeekday); err != nil {
		panic(fmt.Sprintf("failed to register weekday validator: %v", err))
	}
	if err := Validate.RegisterValidation("datestr", validateDateString); err != nil {
		panic(fmt.Sprintf("failed to register datestr validator: %v", err))
	}
	if err := Validate.RegisterValidation("clock", validateClock); err != nil {
		panic(fmt.Sprintf("failed to register clock validator: %v", err))
	}
}

func validateWeekday(fl validator.FieldLevel) bool {
	return timeutil.IsWeekdayName(fl.Field().String())
}

func validateDateString(fl validator.FieldLevel) bool {
	return ValidateDateString(fl.Field().String()) == nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, _, err := timeutil.ParseClock(fl.Field().String())
	return err == nil
}

// ValidateDateString checks a YYYY-MM-DD calendar date.
func ValidateDateString(value string) error {
	if !dateRe.MatchString(value) {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	if _, err := time.Parse(timeutil.DateFormat, value); err != nil {
		return fmt.Errorf("invalid date: %s", value)
	}
	return nil
}

// ValidateWeekday checks a lowercase weekday name.
func ValidateWeekday(value string) error {
	if !timeutil.IsWeekdayName(value) {
		return fmt.Errorf("invalid day: %s (must be a lowercase weekday name)", value)
	}
	return nil
}

// SanitizeText trims whitespace and strips control characters other than
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}
