package models

import "github.com/lib/pq"

// Teacher is a read-only staff-directory record. MaxWeeklyHours bounds the
// weekly teaching load checked by the conflict detector.
type Teacher struct {
	ID             string         `db:"id" json:"id"`
	FirstName      string         `db:"first_name" json:"first_name"`
	LastName       string         `db:"last_name" json:"last_name"`
	MaxWeeklyHours int            `db:"max_weekly_hours" json:"max_weekly_hours"`
	Subjects       pq.StringArray `db:"subjects" json:"subjects"`
}

// FullName renders the display name for descriptions and search.
func (t Teacher) FullName() string {
	switch {
	case t.FirstName == "" && t.LastName == "":
		return ""
	case t.FirstName == "":
		return t.LastName
	case t.LastName == "":
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}
