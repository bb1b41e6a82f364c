// Package reminder runs the background poller that fires agenda reminders.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"agendaku/internal/model"
	"agendaku/internal/push"
	"agendaku/internal/store"
	"agendaku/internal/websocket"
)

const defaultInterval = 60 * time.Second

// Scheduler scans for agendas whose reminder window has opened and delivers
// each reminder at most once, regardless of how many scans overlap.
type Scheduler struct {
	mu            sync.RWMutex
	agendas       *store.AgendaStore
	sessions      *store.SessionStore
	notifications *store.NotificationStore
	pushStore     *store.PushStore
	pushService   *push.Service
	hub           *websocket.Hub
	logger        *slog.Logger
	interval      time.Duration
	now           func() time.Time
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewScheduler creates a reminder scheduler. pushService may be nil when no
// VAPID keys are configured; web push delivery is then skipped.
func NewScheduler(
	as *store.AgendaStore,
	ss *store.SessionStore,
	ns *store.NotificationStore,
	ps *store.PushStore,
	svc *push.Service,
	hub *websocket.Hub,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		agendas:       as,
		sessions:      ss,
		notifications: ns,
		pushStore:     ps,
		pushService:   svc,
		hub:           hub,
		logger:        logger,
		interval:      defaultInterval,
		now:           time.Now,
	}
}

// Start begins the scheduler loop. The first scan runs immediately, then
// every interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.scan()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.scan()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) scan() {
	active, err := s.sessions.CountActive()
	if err != nil {
		s.logger.Error("reminder scan: count sessions", "error", err)
		return
	}
	if active == 0 {
		// Nobody logged in, nobody to notify
		return
	}

	now := s.now()
	pending, err := s.agendas.ListPendingReminders(now)
	if err != nil {
		s.logger.Error("reminder scan: list pending", "error", err)
		return
	}

	for _, a := range pending {
		if now.Before(a.ReminderTime()) {
			continue
		}
		s.fire(a)
	}
}

// fire flips the agenda's reminder flag and delivers the notification. The
// compare-and-set in MarkReminded makes exactly one caller the winner, so a
// reminder is never delivered twice.
func (s *Scheduler) fire(a model.Agenda) {
	won, err := s.agendas.MarkReminded(a.ID)
	if err != nil {
		s.logger.Error("reminder fire: mark reminded", "agenda_id", a.ID, "error", err)
		return
	}
	if !won {
		return
	}

	message := fmt.Sprintf("Reminder: %s akan dimulai dalam %d menit", a.Title, a.ReminderMinutes)

	n, err := s.notifications.Create(a.ID, a.CreatedBy, message, a.ReminderTime())
	if err != nil {
		s.logger.Error("reminder fire: create notification", "agenda_id", a.ID, "error", err)
	}

	extra := map[string]any{"message": message}
	if n != nil {
		extra["notification_id"] = n.ID
	}
	s.hub.Broadcast(websocket.NewMessage("reminder", "fired", a.ID, extra))

	s.sendPush(a, message)

	s.logger.Info("reminder fired", "agenda_id", a.ID, "title", a.Title)
}

func (s *Scheduler) sendPush(a model.Agenda, message string) {
	if s.pushService == nil {
		return
	}

	subs, err := s.pushStore.ListAll()
	if err != nil {
		s.logger.Error("reminder push: list subscriptions", "error", err)
		return
	}

	payload := push.Payload{
		Title: "Pengingat Agenda",
		Body:  message,
		URL:   "/",
		Tag:   fmt.Sprintf("reminder-%s", a.ID),
	}

	for _, sub := range subs {
		if err := s.pushService.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				s.pushStore.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("reminder push: send", "error", err)
			}
		}
	}
}
