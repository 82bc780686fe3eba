package store

import "time"

// Person is the record managed by the data command group.
type Person struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name.
func (Person) TableName() string {
	return "people"
}
