package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blogpress/internal/models"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message, actor string, articleID *int64) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// Publisher receives every event after it is stored, e.g. to push it to live clients.
type Publisher interface {
	Publish(event models.Event)
}

// EventService provides business logic for event management.
type EventService struct {
	db        *sql.DB
	publisher Publisher
	now       func() time.Time
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(db *sql.DB, publisher Publisher) *EventService {
	return &EventService{db: db, publisher: publisher, now: time.Now}
}

// CreateEvent logs a new event to the database and publishes it.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message, actor string, articleID *int64) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Actor:     actor,
		ArticleID: articleID,
		CreatedAt: s.now().Truncate(time.Second),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, actor, article_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.Actor, event.ArticleID, models.FormatTimestamp(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}

	if s.publisher != nil {
		s.publisher.Publish(event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, actor, article_id, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			event     models.Event
			articleID sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.Actor, &articleID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if articleID.Valid {
			id := articleID.Int64
			event.ArticleID = &id
		}
		if event.CreatedAt, err = models.ParseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("bad event timestamp %q: %w", createdAt, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// recordEvent writes an activity event. Failing to record never fails the
// operation that triggered it.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, level, message, actor string, articleID *int64) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, level, message, actor, articleID); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
