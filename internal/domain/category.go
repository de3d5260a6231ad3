package domain

import "time"

// RecordStatus is the active/inactive flag shared by employees, categories and users.
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
)

// Valid reports whether s is active or inactive.
func (s RecordStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Category groups assets.
type Category struct {
	ID          string
	Name        string
	Code        string
	Description *string
	Status      RecordStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryWithCount is a category plus the number of assets referencing it.
type CategoryWithCount struct {
	Category
	AssetCount int
}

// CategorySummary is the slim projection joined into assets.
type CategorySummary struct {
	ID   string
	Name string
	Code string
}
