package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionPayrunGenerate  = "payrun.generate"
	ActionTimesheetCreate = "timesheet.create"
	ActionTimesheetUpdate = "timesheet.update"
	ActionTimesheetDelete = "timesheet.delete"
	ActionEmployeeCreate  = "employee.create"
	ActionEmployeeUpdate  = "employee.update"
	ActionEmployeeDelete  = "employee.delete"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record writes one audit event. Before/after snapshots are marshaled to
// JSON; either may be nil.
func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, before, after any) error {
	var beforeJSON, afterJSON []byte
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, actorID, action, entityType, entityID, beforeJSON, afterJSON, requestID)
	return err
}

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorUserId,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId,omitempty"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	RequestID  string          `json:"requestId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM audit_events
    WHERE ($1 = '' OR action = $1)
      AND ($2 = '' OR entity_type = $2)
      AND ($3 = '' OR actor_user_id = $3)
  `, filter.Action, filter.EntityType, filter.ActorID).Scan(&total)
	return total, err
}

// List returns events newest first. Details (the before/after snapshots) are
// omitted unless asked for; they can be large.
func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(actor_user_id, ''), action, entity_type, COALESCE(entity_id, ''),
           before_json, after_json, COALESCE(request_id, ''), created_at
    FROM audit_events
    WHERE ($1 = '' OR action = $1)
      AND ($2 = '' OR entity_type = $2)
      AND ($3 = '' OR actor_user_id = $3)
    ORDER BY created_at DESC, id DESC
    LIMIT $4 OFFSET $5
  `, filter.Action, filter.EntityType, filter.ActorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.ActorID, &event.Action, &event.EntityType, &event.EntityID,
			&event.Before, &event.After, &event.RequestID, &event.CreatedAt); err != nil {
			return nil, err
		}
		if !includeDetails {
			event.Before = nil
			event.After = nil
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Service) ListExport(ctx context.Context) ([]Event, error) {
	return s.List(ctx, Filter{}, false, 10000, 0)
}
