package models

// Class is a read-only class-roster record.
type Class struct {
	ID                string `db:"id" json:"id"`
	Name              string `db:"name" json:"name"`
	CurrentEnrollment int    `db:"current_enrollment" json:"current_enrollment"`
	MaxCapacity       int    `db:"max_capacity" json:"max_capacity"`
}
