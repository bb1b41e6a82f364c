package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agendaku/internal/model"
)

type AgendaStore struct {
	db *sql.DB
}

func NewAgendaStore(db *sql.DB) *AgendaStore {
	return &AgendaStore{db: db}
}

func scanAgenda(scanner interface{ Scan(...any) error }) (*model.Agenda, error) {
	var a model.Agenda
	var category string
	var sentInt int
	err := scanner.Scan(&a.ID, &a.Title, &category, &a.StartTime, &a.EndTime,
		&a.Location, &a.Description, &a.ReminderMinutes, &sentInt, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Category = model.Category(category)
	a.NotificationSent = sentInt != 0
	return &a, nil
}

const agendaCols = `id, title, category, start_time, end_time, location, description,
	reminder_minutes, notification_sent, created_by, created_at, updated_at`

func (s *AgendaStore) Create(title string, category model.Category, startTime, endTime time.Time, location, description string, reminderMinutes int, createdBy int64) (*model.Agenda, error) {
	id := uuid.New().String()

	_, err := s.db.Exec(
		`INSERT INTO agendas (id, title, category, start_time, end_time, location, description, reminder_minutes, notification_sent, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, title, string(category), startTime.UTC(), endTime.UTC(), location, description, reminderMinutes, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agenda: %w", err)
	}

	return s.GetByID(id)
}

func (s *AgendaStore) GetByID(id string) (*model.Agenda, error) {
	row := s.db.QueryRow(`SELECT `+agendaCols+` FROM agendas WHERE id = ?`, id)
	a, err := scanAgenda(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agenda: %w", err)
	}
	return a, nil
}

// List returns every agenda ordered by start time ascending, the same
// ordering the live feed query uses.
func (s *AgendaStore) List() ([]model.Agenda, error) {
	rows, err := s.db.Query(`SELECT ` + agendaCols + ` FROM agendas ORDER BY start_time ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agendas: %w", err)
	}
	defer rows.Close()
	return scanAgendas(rows)
}

// Update overwrites the editable fields of an agenda. When preserveReminderFlag
// is false the notification_sent flag is reset, re-arming the reminder.
func (s *AgendaStore) Update(id, title string, category model.Category, startTime, endTime time.Time, location, description string, reminderMinutes int, preserveReminderFlag bool) (*model.Agenda, error) {
	query := `UPDATE agendas
		 SET title = ?, category = ?, start_time = ?, end_time = ?, location = ?,
		     description = ?, reminder_minutes = ?, updated_at = CURRENT_TIMESTAMP`
	if !preserveReminderFlag {
		query += `, notification_sent = 0`
	}
	query += ` WHERE id = ?`

	_, err := s.db.Exec(query,
		title, string(category), startTime.UTC(), endTime.UTC(), location, description, reminderMinutes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update agenda: %w", err)
	}

	return s.GetByID(id)
}

func (s *AgendaStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM agendas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete agenda: %w", err)
	}
	return nil
}

// ListPendingReminders returns agendas that have not fired a reminder and
// start strictly after now. Agendas whose start has already passed are
// excluded: a missed reminder window is dropped, never fired late.
func (s *AgendaStore) ListPendingReminders(now time.Time) ([]model.Agenda, error) {
	rows, err := s.db.Query(
		`SELECT `+agendaCols+` FROM agendas
		 WHERE notification_sent = 0 AND start_time > ?
		 ORDER BY start_time ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	defer rows.Close()
	return scanAgendas(rows)
}

// MarkReminded flips notification_sent for the agenda and reports whether
// this caller performed the flip. The conditional update is the guard that
// keeps concurrent schedulers from firing the same reminder twice.
func (s *AgendaStore) MarkReminded(id string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE agendas SET notification_sent = 1 WHERE id = ? AND notification_sent = 0`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminded: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func scanAgendas(rows *sql.Rows) ([]model.Agenda, error) {
	var agendas []model.Agenda
	for rows.Next() {
		a, err := scanAgenda(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agenda: %w", err)
		}
		agendas = append(agendas, *a)
	}
	return agendas, rows.Err()
}
