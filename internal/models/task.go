package models

import "time"

const (
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryShopping = "Shopping"
	CategoryOthers   = "Others"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
	Category    string
	Priority    string
	CreatedAt   time.Time
}

// NormalizeCategory projects a caller-supplied category onto the
// allowed set. Anything outside it becomes CategoryOthers.
func NormalizeCategory(category string) string {
	switch category {
	case CategoryWork, CategoryPersonal, CategoryShopping, CategoryOthers:
		return category
	default:
		return CategoryOthers
	}
}

// NormalizePriority projects a caller-supplied priority onto the
// allowed set. Anything outside it becomes PriorityMedium.
func NormalizePriority(priority string) string {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return priority
	default:
		return PriorityMedium
	}
}

// CompletedFromForm reports whether a checkbox-style form value marks
// a task as completed. Only the literal "on" counts; every other
// value, including an absent field, means not completed.
func CompletedFromForm(value string) bool {
	return value == "on"
}
