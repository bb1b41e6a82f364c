package model

import (
	"fmt"
	"time"
)

// Category is the fixed set of agenda categories.
type Category string

const (
	CategoryRapatInternal    Category = "rapat_internal"
	CategoryPertemuanKlien   Category = "pertemuan_klien"
	CategoryOlahraga         Category = "olahraga"
	CategoryPerjalananBisnis Category = "perjalanan_bisnis"
	CategoryPribadi          Category = "pribadi"
)

var categoryLabels = map[Category]string{
	CategoryRapatInternal:    "Rapat Internal",
	CategoryPertemuanKlien:   "Pertemuan Klien",
	CategoryOlahraga:         "Olahraga",
	CategoryPerjalananBisnis: "Perjalanan Bisnis",
	CategoryPribadi:          "Pribadi",
}

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryRapatInternal,
		CategoryPertemuanKlien,
		CategoryOlahraga,
		CategoryPerjalananBisnis,
		CategoryPribadi,
	}
}

// ParseCategory validates a category string against the fixed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Label returns the display label for the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// Agenda is a scheduled item with a time range, category, and reminder offset.
// NotificationSent flips to true exactly once, when the reminder scheduler
// fires for the event.
type Agenda struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Category         Category  `json:"category"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Location         string    `json:"location"`
	Description      string    `json:"description,omitempty"`
	ReminderMinutes  int       `json:"reminder_minutes"`
	NotificationSent bool      `json:"notification_sent"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReminderTime returns the instant at which the agenda becomes eligible
// for its one-time reminder.
func (a *Agenda) ReminderTime() time.Time {
	return a.StartTime.Add(-time.Duration(a.ReminderMinutes) * time.Minute)
}
