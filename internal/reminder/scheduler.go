// Package reminder runs the periodic poll that alerts users shortly before
// a routine's scheduled time.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cadence/internal/model"
	"cadence/internal/push"
	"cadence/internal/routine"
	"cadence/internal/store"
	"cadence/internal/websocket"
)

const (
	pollInterval = time.Minute
	// A routine triggers its reminder when its scheduled time falls within
	// this window after the poll instant.
	lookahead = 5 * time.Minute
)

// Scheduler polls once per minute for routines about to start and delivers
// at most one reminder per task per day, deduplicated through the notified
// store across restarts.
type Scheduler struct {
	mu        sync.RWMutex
	days      *store.DayStore
	templates *store.TemplateStore
	notified  *store.NotifiedStore
	settings  *store.SettingsStore
	subs      *store.PushStore
	service   *push.Service // nil when VAPID keys are not configured
	hub       *websocket.Hub
	logger    *slog.Logger
	now       func() time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a reminder scheduler. service may be nil; reminders
// then go out over the WebSocket hub only.
func NewScheduler(days *store.DayStore, templates *store.TemplateStore, notified *store.NotifiedStore, settings *store.SettingsStore, subs *store.PushStore, service *push.Service, hub *websocket.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		days:      days,
		templates: templates,
		notified:  notified,
		settings:  settings,
		subs:      subs,
		service:   service,
		hub:       hub,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins the poll loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
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

func (s *Scheduler) tick() {
	userIDs, err := s.settings.UsersWithNotificationsEnabled()
	if err != nil {
		s.logger.Error("list notification users", "error", err)
		return
	}

	now := s.now()
	for _, userID := range userIDs {
		s.checkUser(userID, now)
	}
}

func (s *Scheduler) checkUser(userID int64, now time.Time) {
	dateKey := routine.DateKey(now)

	// Only days the user has already materialized are considered; a day
	// never visited has no instances to remind about.
	day, exists, err := s.days.Get(userID, dateKey)
	if err != nil {
		s.logger.Error("load day record", "user_id", userID, "error", err)
		return
	}
	if !exists {
		return
	}

	// Recurring instances are derived on load and not persisted until a
	// mutation pins them, so the day view and the scheduler must expand
	// them the same way.
	saved, err := s.templates.ListByUser(userID)
	if err != nil {
		s.logger.Error("list templates", "user_id", userID, "error", err)
		return
	}
	day = append(day, routine.ExpandRecurring(saved, now, day)...)

	for _, r := range day {
		if r.Completed || !Due(r, now) {
			continue
		}

		sent, err := s.notified.WasNotified(userID, dateKey, r.ID)
		if err != nil {
			s.logger.Error("check notified", "user_id", userID, "routine_id", r.ID, "error", err)
			continue
		}
		if sent {
			continue
		}

		s.deliver(userID, r)

		if err := s.notified.Record(userID, dateKey, r.ID); err != nil {
			s.logger.Error("record notified", "user_id", userID, "routine_id", r.ID, "error", err)
		}
	}
}

// Due reports whether r's scheduled time falls within the lookahead window
// starting at now, on now's calendar day. Unparseable times never trigger.
func Due(r model.Routine, now time.Time) bool {
	hour, minute, ok := routine.ParseClock(r.Time)
	if !ok {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return !at.Before(now) && at.Before(now.Add(lookahead))
}

func (s *Scheduler) deliver(userID int64, r model.Routine) {
	body := fmt.Sprintf("%s starts at %s", r.Title, r.Time)

	s.hub.Send(userID, websocket.NewMessage("reminder", "due", r.ID, map[string]any{
		"title": r.Title,
		"time":  r.Time,
	}))

	if s.service == nil {
		return
	}

	subs, err := s.subs.ListByUser(userID)
	if err != nil {
		s.logger.Error("list push subscriptions", "user_id", userID, "error", err)
		return
	}

	payload := push.Payload{
		Title: "Routine Reminder",
		Body:  body,
		URL:   "/",
		Tag:   "reminder-" + r.ID,
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				s.subs.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("send reminder", "user_id", userID, "error", err)
			}
		}
	}
}
