package store

import (
	"testing"
	"time"

	"agendaku/internal/database"
	"agendaku/internal/model"
)

func setupNotificationTestDB(t *testing.T) (*NotificationStore, *AgendaStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	admin, err := NewUserStore(db).Create("Budi", "budi@example.com", model.RoleAdmin, "hash")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return NewNotificationStore(db), NewAgendaStore(db), admin.ID
}

func createTestAgenda(t *testing.T, as *AgendaStore, adminID int64) *model.Agenda {
	t.Helper()
	start := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	agenda, err := as.Create("Standup", model.CategoryRapatInternal, start, start.Add(30*time.Minute), "", "", 10, adminID)
	if err != nil {
		t.Fatalf("create agenda: %v", err)
	}
	return agenda
}

func TestNotificationCreate(t *testing.T) {
	ns, as, adminID := setupNotificationTestDB(t)
	agenda := createTestAgenda(t, as, adminID)

	when := time.Date(2026, 2, 5, 9, 50, 0, 0, time.UTC)
	n, err := ns.Create(agenda.ID, adminID, "Reminder: Standup akan dimulai dalam 10 menit", when)
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.ID == "" {
		t.Error("expected generated id")
	}
	if n.AgendaID != agenda.ID {
		t.Errorf("agenda_id = %q, want %q", n.AgendaID, agenda.ID)
	}
	if !n.Sent {
		t.Error("notification must be recorded as sent")
	}
	if n.SentAt.IsZero() {
		t.Error("expected sent_at to be set")
	}
}

func TestNotificationAtMostOnePerAgenda(t *testing.T) {
	ns, as, adminID := setupNotificationTestDB(t)
	agenda := createTestAgenda(t, as, adminID)

	when := time.Now().UTC()
	if _, err := ns.Create(agenda.ID, adminID, "pertama", when); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if _, err := ns.Create(agenda.ID, adminID, "kedua", when); err == nil {
		t.Error("expected unique constraint error for second notification")
	}
}

func TestNotificationGetByAgendaID(t *testing.T) {
	ns, as, adminID := setupNotificationTestDB(t)
	agenda := createTestAgenda(t, as, adminID)

	got, err := ns.GetByAgendaID(agenda.ID)
	if err != nil {
		t.Fatalf("get by agenda: %v", err)
	}
	if got != nil {
		t.Error("expected nil before any reminder fired")
	}

	ns.Create(agenda.ID, adminID, "pesan", time.Now().UTC())

	got, err = ns.GetByAgendaID(agenda.ID)
	if err != nil {
		t.Fatalf("get by agenda: %v", err)
	}
	if got == nil {
		t.Fatal("expected notification after create")
	}
	if got.Message != "pesan" {
		t.Errorf("message = %q, want %q", got.Message, "pesan")
	}
}

func TestNotificationListByUser(t *testing.T) {
	ns, as, adminID := setupNotificationTestDB(t)
	a1 := createTestAgenda(t, as, adminID)
	start := time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC)
	a2, _ := as.Create("Lari Pagi", model.CategoryOlahraga, start, start.Add(time.Hour), "", "", 5, adminID)

	ns.Create(a1.ID, adminID, "satu", time.Now().UTC())
	ns.Create(a2.ID, adminID, "dua", time.Now().UTC())

	list, err := ns.ListByUser(adminID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d notifications, want 2", len(list))
	}

	other, err := ns.ListByUser(999)
	if err != nil {
		t.Fatalf("list by other user: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d notifications for unrelated user, want 0", len(other))
	}
}
