package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agendaku/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var sentInt int
	err := scanner.Scan(&n.ID, &n.AgendaID, &n.UserID, &n.Message, &n.WhenToNotify, &sentInt, &n.SentAt)
	if err != nil {
		return nil, err
	}
	n.Sent = sentInt != 0
	return &n, nil
}

const notificationCols = `id, agenda_id, user_id, message, when_to_notify, sent, sent_at`

// Create records a fired reminder. The unique index on agenda_id rejects a
// second record for the same agenda.
func (s *NotificationStore) Create(agendaID string, userID int64, message string, whenToNotify time.Time) (*model.Notification, error) {
	id := uuid.New().String()

	_, err := s.db.Exec(
		`INSERT INTO notifications (id, agenda_id, user_id, message, when_to_notify, sent)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		id, agendaID, userID, message, whenToNotify.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) GetByAgendaID(agendaID string) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE agenda_id = ?`, agendaID)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification by agenda: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) ListByUser(userID int64) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications WHERE user_id = ? ORDER BY sent_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications by user: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// DeleteOlderThan prunes notification records sent before the given time.
func (s *NotificationStore) DeleteOlderThan(before time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM notifications WHERE sent_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
