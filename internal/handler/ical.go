package handler

import (
	"log/slog"
	"net/http"

	"agendaku/internal/store"

	ical "github.com/arran4/golang-ical"
)

type ICalHandler struct {
	agendaStore *store.AgendaStore
	logger      *slog.Logger
}

func NewICalHandler(as *store.AgendaStore, logger *slog.Logger) *ICalHandler {
	return &ICalHandler{agendaStore: as, logger: logger}
}

// Export handles GET /api/agendas/export.ics, serializing the full agenda
// list as an iCalendar feed that desktop calendar apps can subscribe to.
func (h *ICalHandler) Export(w http.ResponseWriter, r *http.Request) {
	agendas, err := h.agendaStore.List()
	if err != nil {
		h.logger.Error("export agendas", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to export agendas"})
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//agendaku//agenda//ID")

	for _, a := range agendas {
		ev := cal.AddEvent(a.ID)
		ev.SetCreatedTime(a.CreatedAt)
		ev.SetModifiedAt(a.UpdatedAt)
		ev.SetStartAt(a.StartTime)
		ev.SetEndAt(a.EndTime)
		ev.SetSummary(a.Title)
		if a.Location != "" {
			ev.SetLocation(a.Location)
		}
		if a.Description != "" {
			ev.SetDescription(a.Description)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="agendaku.ics"`)
	if err := cal.SerializeTo(w); err != nil {
		h.logger.Error("serialize calendar", "error", err)
	}
}
