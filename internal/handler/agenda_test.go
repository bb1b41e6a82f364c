package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agendaku/internal/auth"
	"agendaku/internal/database"
	"agendaku/internal/model"
	"agendaku/internal/store"
	"agendaku/internal/websocket"
)

func setupAgendaHandler(t *testing.T, preserveReminderFlag bool) (*AgendaHandler, *store.AgendaStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := store.NewUserStore(db).Create("Admin", "admin@example.com", model.RoleAdmin, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	as := store.NewAgendaStore(db)
	hub := websocket.NewHub(slog.Default())
	return NewAgendaHandler(as, hub, preserveReminderFlag, slog.Default()), as, u.ID
}

func adminRequest(userID int64, method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID, Role: model.RoleAdmin})
	return req.WithContext(ctx)
}

func TestCreateAgenda(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	body := `{"title":"Rapat Tim","category":"rapat_internal",
		"start_time":"2026-03-10T09:00:00Z","end_time":"2026-03-10T10:00:00Z",
		"location":"Ruang A","reminder_minutes":10}`
	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(uid, "POST", "/api/agendas", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var a model.Agenda
	if err := json.NewDecoder(rec.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.ID == "" {
		t.Error("expected generated id")
	}
	if a.Category != model.CategoryRapatInternal {
		t.Errorf("category = %q, want %q", a.Category, model.CategoryRapatInternal)
	}
	if a.NotificationSent {
		t.Error("new agenda must start with notification_sent = false")
	}
	if a.CreatedBy != uid {
		t.Errorf("created_by = %d, want %d", a.CreatedBy, uid)
	}
}

func TestCreateAgendaEndBeforeStart(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	body := `{"title":"Mundur","category":"rapat_internal",
		"start_time":"2026-03-10T10:00:00Z","end_time":"2026-03-10T09:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(uid, "POST", "/api/agendas", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "end_time must be after start_time" {
		t.Errorf("error = %q", msg)
	}
}

func TestCreateAgendaEqualTimesRejected(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	body := `{"title":"Nol Durasi","category":"rapat_internal",
		"start_time":"2026-03-10T09:00:00Z","end_time":"2026-03-10T09:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(uid, "POST", "/api/agendas", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateAgendaUnknownCategory(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	body := `{"title":"Aneh","category":"arisan",
		"start_time":"2026-03-10T09:00:00Z","end_time":"2026-03-10T10:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(uid, "POST", "/api/agendas", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "unknown category" {
		t.Errorf("error = %q", msg)
	}
}

func TestCreateAgendaMissingTitle(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	body := `{"title":"  ","category":"rapat_internal",
		"start_time":"2026-03-10T09:00:00Z","end_time":"2026-03-10T10:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Create(rec, adminRequest(uid, "POST", "/api/agendas", body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rec); msg != "title is required" {
		t.Errorf("error = %q", msg)
	}
}

func TestListAgendasFiltered(t *testing.T) {
	h, as, uid := setupAgendaHandler(t, true)

	mustCreate := func(title string, cat model.Category, start, end string) {
		t.Helper()
		st := mustParseTime(t, start)
		en := mustParseTime(t, end)
		if _, err := as.Create(title, cat, st, en, "", "", 0, uid); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	mustCreate("Standup", model.CategoryRapatInternal, "2026-03-10T02:00:00Z", "2026-03-10T03:00:00Z")
	mustCreate("Klien", model.CategoryPertemuanKlien, "2026-03-10T07:00:00Z", "2026-03-10T08:00:00Z")
	mustCreate("Futsal", model.CategoryOlahraga, "2026-03-11T12:00:00Z", "2026-03-11T13:00:00Z")

	// Category filter only
	rec := httptest.NewRecorder()
	h.List(rec, adminRequest(uid, "GET", "/api/agendas?category=olahraga", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got []model.Agenda
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Futsal" {
		t.Errorf("category filter: got %d agendas", len(got))
	}

	// Date filter in UTC
	rec = httptest.NewRecorder()
	h.List(rec, adminRequest(uid, "GET", "/api/agendas?date=2026-03-10&tz=UTC", ""))
	got = nil
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("date filter: got %d agendas, want 2", len(got))
	}
	// Feed stays sorted by start time
	if got[0].Title != "Standup" || got[1].Title != "Klien" {
		t.Errorf("order = %q, %q", got[0].Title, got[1].Title)
	}

	// Unknown timezone rejected
	rec = httptest.NewRecorder()
	h.List(rec, adminRequest(uid, "GET", "/api/agendas?date=2026-03-10&tz=Mars/Olympus", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad tz: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateAgendaNotFound(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	body := `{"title":"Baru","category":"rapat_internal",
		"start_time":"2026-03-10T09:00:00Z","end_time":"2026-03-10T10:00:00Z"}`
	req := adminRequest(uid, "PUT", "/api/agendas/tidak-ada", body)
	req.SetPathValue("id", "tidak-ada")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateAgendaPreservesReminderFlag(t *testing.T) {
	h, as, uid := setupAgendaHandler(t, true)

	a, err := as.Create("Rapat", model.CategoryRapatInternal,
		mustParseTime(t, "2026-03-10T09:00:00Z"), mustParseTime(t, "2026-03-10T10:00:00Z"),
		"", "", 10, uid)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := as.MarkReminded(a.ID); err != nil {
		t.Fatalf("mark reminded: %v", err)
	}

	body := `{"title":"Rapat Digeser","category":"rapat_internal",
		"start_time":"2026-03-10T11:00:00Z","end_time":"2026-03-10T12:00:00Z","reminder_minutes":10}`
	req := adminRequest(uid, "PUT", "/api/agendas/"+a.ID, body)
	req.SetPathValue("id", a.ID)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got model.Agenda
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.NotificationSent {
		t.Error("expected notification_sent to stay true with preserve enabled")
	}
}

func TestUpdateAgendaRearmsReminderWhenNotPreserving(t *testing.T) {
	h, as, uid := setupAgendaHandler(t, false)

	a, err := as.Create("Rapat", model.CategoryRapatInternal,
		mustParseTime(t, "2026-03-10T09:00:00Z"), mustParseTime(t, "2026-03-10T10:00:00Z"),
		"", "", 10, uid)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := as.MarkReminded(a.ID); err != nil {
		t.Fatalf("mark reminded: %v", err)
	}

	body := `{"title":"Rapat Digeser","category":"rapat_internal",
		"start_time":"2026-03-10T11:00:00Z","end_time":"2026-03-10T12:00:00Z","reminder_minutes":10}`
	req := adminRequest(uid, "PUT", "/api/agendas/"+a.ID, body)
	req.SetPathValue("id", a.ID)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	var got model.Agenda
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.NotificationSent {
		t.Error("expected notification_sent reset to false after edit")
	}
}

func TestDeleteAgenda(t *testing.T) {
	h, as, uid := setupAgendaHandler(t, true)

	a, err := as.Create("Hapus", model.CategoryPribadi,
		mustParseTime(t, "2026-03-10T09:00:00Z"), mustParseTime(t, "2026-03-10T10:00:00Z"),
		"", "", 0, uid)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := adminRequest(uid, "DELETE", "/api/agendas/"+a.ID, "")
	req.SetPathValue("id", a.ID)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected agenda gone after delete")
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	h, _, uid := setupAgendaHandler(t, true)

	rec := httptest.NewRecorder()
	h.Categories(rec, adminRequest(uid, "GET", "/api/categories", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d categories, want 5", len(items))
	}
	if items[0].Value != "rapat_internal" || items[0].Label != "Rapat Internal" {
		t.Errorf("first category = %+v", items[0])
	}
}
