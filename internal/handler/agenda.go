package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"agendaku/internal/auth"
	"agendaku/internal/filter"
	"agendaku/internal/model"
	"agendaku/internal/store"
	"agendaku/internal/websocket"
)

type AgendaHandler struct {
	agendaStore *store.AgendaStore
	hub         *websocket.Hub
	logger      *slog.Logger

	// preserveReminderFlag keeps notification_sent untouched on edits. When
	// false, editing an agenda re-arms its reminder.
	preserveReminderFlag bool
}

func NewAgendaHandler(as *store.AgendaStore, hub *websocket.Hub, preserveReminderFlag bool, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{
		agendaStore:          as,
		hub:                  hub,
		logger:               logger,
		preserveReminderFlag: preserveReminderFlag,
	}
}

type agendaRequest struct {
	Title           string `json:"title"`
	Category        string `json:"category"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	ReminderMinutes int    `json:"reminder_minutes"`
}

func (h *AgendaHandler) parseAndValidate(r *http.Request, w http.ResponseWriter) (*agendaRequest, model.Category, time.Time, time.Time, bool) {
	var req agendaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	category, err := model.ParseCategory(req.Category)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be RFC3339 format"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be RFC3339 format"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	if !endTime.After(startTime) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be after start_time"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	if req.ReminderMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reminder_minutes must not be negative"})
		return nil, "", time.Time{}, time.Time{}, false
	}

	return &req, category, startTime, endTime, true
}

// Create handles POST /api/agendas.
func (h *AgendaHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, category, startTime, endTime, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	agenda, err := h.agendaStore.Create(req.Title, category, startTime, endTime, req.Location, req.Description, req.ReminderMinutes, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("create agenda", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create agenda"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage("agenda", "created", agenda.ID, nil))
	writeJSON(w, http.StatusCreated, agenda)
}

// List handles GET /api/agendas. Optional query parameters: category, date
// (YYYY-MM-DD), and tz (IANA zone name the date is interpreted in).
func (h *AgendaHandler) List(w http.ResponseWriter, r *http.Request) {
	agendas, err := h.agendaStore.List()
	if err != nil {
		h.logger.Error("list agendas", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list agendas"})
		return
	}

	var category model.Category
	if c := r.URL.Query().Get("category"); c != "" {
		category, err = model.ParseCategory(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
			return
		}
	}

	loc := time.Local
	if tz := r.URL.Query().Get("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown timezone"})
			return
		}
	}

	var date time.Time
	if d := r.URL.Query().Get("date"); d != "" {
		date, err = time.ParseInLocation("2006-01-02", d, loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD format"})
			return
		}
	}

	agendas = filter.Apply(agendas, category, date, loc)
	if agendas == nil {
		agendas = []model.Agenda{}
	}
	writeJSON(w, http.StatusOK, agendas)
}

// Get handles GET /api/agendas/{id}.
func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
	agenda, err := h.agendaStore.GetByID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get agenda"})
		return
	}
	if agenda == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agenda not found"})
		return
	}
	writeJSON(w, http.StatusOK, agenda)
}

// Update handles PUT /api/agendas/{id}.
func (h *AgendaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.agendaStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get agenda"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agenda not found"})
		return
	}

	req, category, startTime, endTime, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	agenda, err := h.agendaStore.Update(id, req.Title, category, startTime, endTime, req.Location, req.Description, req.ReminderMinutes, h.preserveReminderFlag)
	if err != nil {
		h.logger.Error("update agenda", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update agenda"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage("agenda", "updated", agenda.ID, nil))
	writeJSON(w, http.StatusOK, agenda)
}

// Delete handles DELETE /api/agendas/{id}.
func (h *AgendaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.agendaStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get agenda"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agenda not found"})
		return
	}

	if err := h.agendaStore.Delete(id); err != nil {
		h.logger.Error("delete agenda", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete agenda"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage("agenda", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/categories, listing the fixed category set with
// display labels.
func (h *AgendaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	type categoryItem struct {
		Value model.Category `json:"value"`
		Label string         `json:"label"`
	}
	items := make([]categoryItem, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		items = append(items, categoryItem{Value: c, Label: c.Label()})
	}
	writeJSON(w, http.StatusOK, items)
}
