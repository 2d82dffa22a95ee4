package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// AppendEvents appends engine events to a group's event log inside one
// transaction, so a partially written batch never becomes visible.
func (s *SQLiteStore) AppendEvents(ctx context.Context, groupID string, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO events (group_id, seq, type, cycle, actor, amount, at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			groupID, e.Seq, string(e.Type), e.Cycle, e.Actor, e.Amount, e.At.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListEvents returns a group's event log in sequence order.
func (s *SQLiteStore) ListEvents(ctx context.Context, groupID string) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, type, cycle, actor, amount, at FROM events WHERE group_id = ? ORDER BY seq",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var typ string
		var atMilli int64
		if err := rows.Scan(&e.Seq, &typ, &e.Cycle, &e.Actor, &e.Amount, &atMilli); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Type = models.EventType(typ)
		e.At = time.UnixMilli(atMilli)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
