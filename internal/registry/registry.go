// Package registry instantiates group engines and records them. It is also
// where the serialized execution model lives: every state-mutating call on a
// group runs under that group's own mutex, so the engine itself never
// interleaves operations.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tanda/internal/engine"
	"github.com/mmynk/tanda/internal/models"
	"github.com/mmynk/tanda/internal/token"
)

var ErrGroupNotFound = errors.New("group not found")

type managedGroup struct {
	mu    sync.Mutex
	group *engine.Group
}

// Registry owns every group engine created in this process.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*managedGroup
	tok    token.Token
}

// New creates an empty registry backed by the given token ledger.
func New(tok token.Token) *Registry {
	return &Registry{
		groups: make(map[string]*managedGroup),
		tok:    tok,
	}
}

// CreateGroup validates the config, assigns the group its UUID identity and
// constructs the engine. The UUID is both the custody account and the
// commitment-binding identifier, so two groups with identical parameters can
// never accept each other's commitments.
func (r *Registry) CreateGroup(name string, cfg models.GroupConfig, now time.Time) (*engine.Group, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid group config: %w", err)
	}

	id := uuid.New().String()
	g := engine.New(id, name, cfg, r.tok, now)

	r.mu.Lock()
	r.groups[id] = &managedGroup{group: g}
	r.mu.Unlock()
	return g, nil
}

// With runs fn against the group while holding its mutex. All engine
// operations, mutating or not, go through here.
func (r *Registry) With(id string, fn func(g *engine.Group) error) error {
	r.mu.RLock()
	mg, ok := r.groups[id]
	r.mu.RUnlock()
	if !ok {
		return ErrGroupNotFound
	}
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return fn(mg.group)
}

// List returns a snapshot of every group, ordered by creation time.
func (r *Registry) List() []engine.GroupView {
	r.mu.RLock()
	managed := make([]*managedGroup, 0, len(r.groups))
	for _, mg := range r.groups {
		managed = append(managed, mg)
	}
	r.mu.RUnlock()

	views := make([]engine.GroupView, 0, len(managed))
	for _, mg := range managed {
		mg.mu.Lock()
		views = append(views, mg.group.Snapshot())
		mg.mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

// Count returns the number of groups ever created in this registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}
