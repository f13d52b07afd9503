package domain

import (
	"fmt"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// User represents an account holder of the tracker.
type User struct {
	ID             string
	Username       string
	Name           string
	PasswordHash   string
	ProfilePicture string
	Gender         Gender
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale:
		return g, nil
	default:
		return "", fmt.Errorf("invalid gender %q", s)
	}
}
