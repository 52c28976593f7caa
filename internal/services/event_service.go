package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/punchy-be/internal/database"
	"github.com/isdelr/punchy-be/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, username *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService stores operational events such as stale session sweeps.
type EventService struct {
	db  *database.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *database.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, username *string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO events (id, type, level, message, username, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		uuid.New().String(), eventType, level, message, username, s.now().UnixMilli())
	if err != nil {
		return storageError("create event", err)
	}
	return nil
}

type eventRow struct {
	ID        string         `db:"id"`
	Type      string         `db:"type"`
	Level     string         `db:"level"`
	Message   string         `db:"message"`
	Username  sql.NullString `db:"username"`
	CreatedAt int64          `db:"created_at"`
}

// GetRecentEvents retrieves the most recent events, newest first. limit is
// clamped like the visit listing.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT id, type, level, message, username, created_at FROM events ORDER BY created_at DESC, id DESC LIMIT ?`),
		ClampLimit(limit))
	if err != nil {
		return nil, storageError("list events", err)
	}

	events := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		event := models.Event{
			ID:        r.ID,
			Type:      r.Type,
			Level:     r.Level,
			Message:   r.Message,
			CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		}
		if r.Username.Valid {
			username := r.Username.String
			event.Username = &username
		}
		events = append(events, event)
	}
	return events, nil
}
