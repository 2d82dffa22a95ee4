// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tanda/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for Tanda's persistence operations. The live
// group engines are authoritative in memory; the store keeps the account
// data and the append-only event log an indexer or UI reconstructs state
// from. This abstraction allows swapping storage backends (SQLite,
// PostgreSQL, etc.) without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	// Returns nil and an error if the user is not found.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// SaveGroup inserts or updates a group's persisted summary record.
	SaveGroup(ctx context.Context, rec *models.GroupRecord) error

	// GetGroup returns one persisted group record.
	// Returns ErrNotFound if no record exists for the ID.
	GetGroup(ctx context.Context, id string) (*models.GroupRecord, error)

	// ListGroups returns all persisted group records, oldest first.
	ListGroups(ctx context.Context) ([]models.GroupRecord, error)

	// AppendEvents appends engine events to a group's event log.
	// Events are never updated or deleted.
	AppendEvents(ctx context.Context, groupID string, events []models.Event) error

	// ListEvents returns a group's event log in sequence order.
	ListEvents(ctx context.Context, groupID string) ([]models.Event, error)

	// Close releases any resources held by the store.
	Close() error
}
