// Package validation checks intake input before it reaches the wizard or the mailer.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"swimintake/internal/catalog"
	"swimintake/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Contact lengths accepted on the landing form. The maximums match the
// intake-submit schema and fit the submissions columns.
const (
	minEmailLength   = 4
	minPhoneLength   = 7
	MaxNameLength    = 200
	MaxContactLength = 254
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects every field problem found in one pass
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Error()
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing field names in order
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, ve := range e {
		out[i] = ve.Field
	}
	return out
}

// AsErrors unwraps err into field errors when it carries any
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return Errors{ve}, true
	}
	return nil, false
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "parent_name", Message: "name is required"}
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxNameLength {
		return ValidationError{Field: "parent_name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	return nil
}

// ValidateIntake checks the landing form against the catalog. The family must
// pick a known location, day and time window and leave a usable contact.
func ValidateIntake(c *catalog.Catalog, in models.Intake) error {
	var errs Errors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}
	checkContact := func(field, required, value string, min int) {
		n := utf8.RuneCountInString(strings.TrimSpace(value))
		switch {
		case n < min:
			add(field, required)
		case n > MaxContactLength:
			add(field, fmt.Sprintf("must be at most %d characters", MaxContactLength))
		}
	}

	if err := ValidateName(in.ParentName); err != nil {
		errs = append(errs, err.(ValidationError))
	}

	if in.Location == "" {
		add("location", "location is required")
	} else if _, ok := c.Location(in.Location); !ok {
		add("location", "unknown location")
	}

	if in.PreferredDay == "" {
		add("preferred_day", "preferred day is required")
	} else if !c.HasDay(in.PreferredDay) {
		add("preferred_day", "unknown day")
	}

	if in.PreferredTime == "" {
		add("preferred_time", "preferred time is required")
	} else if !c.HasTimeWindow(in.PreferredTime) {
		add("preferred_time", "unknown time window")
	}

	switch in.ContactMethod {
	case models.ContactEmail:
		checkContact("contact_email", "email is required", in.ContactEmail, minEmailLength)
	case models.ContactPhone:
		checkContact("contact_phone", "phone number is required", in.ContactPhone, minPhoneLength)
	default:
		add("contact_method", "choose phone or email")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
