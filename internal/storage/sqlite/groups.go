package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/tanda/internal/models"
	"github.com/mmynk/tanda/internal/storage"
)

const groupColumns = `id, name, status, current_cycle, fee_recipient, size, contribution,
	security_deposit, total_cycles, fee_bps, cycle_duration_sec,
	pay_window_sec, commit_window_sec, reveal_window_sec, created_at`

// SaveGroup inserts or updates a group's persisted summary record.
func (s *SQLiteStore) SaveGroup(ctx context.Context, rec *models.GroupRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (
			id, name, status, current_cycle, fee_recipient, size, contribution,
			security_deposit, total_cycles, fee_bps, cycle_duration_sec,
			pay_window_sec, commit_window_sec, reveal_window_sec, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			current_cycle = excluded.current_cycle`,
		rec.ID, rec.Name, string(rec.Status), rec.CurrentCycle,
		rec.Config.FeeRecipient, rec.Config.Size, rec.Config.Contribution,
		rec.Config.SecurityDeposit, rec.Config.TotalCycles, rec.Config.FeeBps,
		int64(rec.Config.CycleDuration/time.Second),
		int64(rec.Config.PayWindow/time.Second),
		int64(rec.Config.CommitWindow/time.Second),
		int64(rec.Config.RevealWindow/time.Second),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

// scanGroupRecord reads one groups row in groupColumns order.
func scanGroupRecord(scan func(dest ...any) error) (*models.GroupRecord, error) {
	var rec models.GroupRecord
	var status string
	var cycleSec, paySec, commitSec, revealSec int64
	if err := scan(
		&rec.ID, &rec.Name, &status, &rec.CurrentCycle,
		&rec.Config.FeeRecipient, &rec.Config.Size, &rec.Config.Contribution,
		&rec.Config.SecurityDeposit, &rec.Config.TotalCycles, &rec.Config.FeeBps,
		&cycleSec, &paySec, &commitSec, &revealSec, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = models.GroupStatus(status)
	rec.Config.CycleDuration = time.Duration(cycleSec) * time.Second
	rec.Config.PayWindow = time.Duration(paySec) * time.Second
	rec.Config.CommitWindow = time.Duration(commitSec) * time.Second
	rec.Config.RevealWindow = time.Duration(revealSec) * time.Second
	return &rec, nil
}

// GetGroup returns one persisted group record.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.GroupRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+groupColumns+" FROM groups WHERE id = ?", id)
	rec, err := scanGroupRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return rec, nil
}

// ListGroups returns all persisted group records, oldest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]models.GroupRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+groupColumns+" FROM groups ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []models.GroupRecord
	for rows.Next() {
		rec, err := scanGroupRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}
