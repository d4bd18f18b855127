package models

import (
	"fmt"
	"strings"
)

// ContactMethod is how the family prefers to be reached
type ContactMethod string

const (
	ContactUnset ContactMethod = ""
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
)

// ParseContactMethod parses "email" or "phone"
func ParseContactMethod(s string) (ContactMethod, error) {
	switch ContactMethod(strings.ToLower(strings.TrimSpace(s))) {
	case ContactEmail:
		return ContactEmail, nil
	case ContactPhone:
		return ContactPhone, nil
	case ContactUnset:
		return ContactUnset, nil
	}
	return ContactUnset, fmt.Errorf("invalid contact method %q", s)
}

// Intake holds the landing-page contact details
type Intake struct {
	ParentName    string        `json:"parent_name"`
	Location      string        `json:"location"`
	PreferredDay  string        `json:"preferred_day"`
	PreferredTime string        `json:"preferred_time"`
	ContactMethod ContactMethod `json:"contact_method"`
	ContactEmail  string        `json:"contact_email,omitempty"`
	ContactPhone  string        `json:"contact_phone,omitempty"`
}

// ContactValue returns the email or phone matching the chosen contact method
func (i Intake) ContactValue() string {
	if i.ContactMethod == ContactEmail {
		return strings.TrimSpace(i.ContactEmail)
	}
	return strings.TrimSpace(i.ContactPhone)
}

// Location is a swim school site families can enroll at
type Location struct {
	Name      string `yaml:"name" json:"name"`
	Brand     string `yaml:"brand" json:"brand"`
	Phone     string `yaml:"phone" json:"phone"`
	Email     string `yaml:"email" json:"email"`
	PortalURL string `yaml:"portal_url" json:"portal_url"`
}
