// Package filter derives the displayed agenda subset from the full feed.
// Everything here is pure: no store access, no clock reads.
package filter

import (
	"time"

	"agendaku/internal/model"
)

// ByCategory keeps agendas whose category matches exactly. An empty
// category is the identity filter.
func ByCategory(agendas []model.Agenda, category model.Category) []model.Agenda {
	if category == "" {
		return agendas
	}
	out := make([]model.Agenda, 0, len(agendas))
	for _, a := range agendas {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// ByDate keeps agendas whose start time falls on the given calendar date
// in the supplied location. A zero date is the identity filter.
func ByDate(agendas []model.Agenda, date time.Time, loc *time.Location) []model.Agenda {
	if date.IsZero() {
		return agendas
	}
	wantY, wantM, wantD := date.In(loc).Date()
	out := make([]model.Agenda, 0, len(agendas))
	for _, a := range agendas {
		y, m, d := a.StartTime.In(loc).Date()
		if y == wantY && m == wantM && d == wantD {
			out = append(out, a)
		}
	}
	return out
}

// Apply composes the category and date filters, preserving input order.
func Apply(agendas []model.Agenda, category model.Category, date time.Time, loc *time.Location) []model.Agenda {
	return ByDate(ByCategory(agendas, category), date, loc)
}
