package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Student is a record managed behind the authentication gate.
type Student struct {
	ID         int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Gender     Gender
	ProfilePic string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
