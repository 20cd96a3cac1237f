// Package catalog provides generic business logic for catalog entities.
package catalog

import (
	"context"

	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches against code and name.
	Search string

	// IDs filters by specific ids.
	IDs []id.ID

	// IncludeDeleted includes soft-deleted records.
	IncludeDeleted bool

	// OrderBy names a sortable column, "-" prefix for descending.
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Repository defines CRUD operations for catalog entities.
type Repository[T entity.Validatable] interface {
	// Create inserts a new entity.
	Create(ctx context.Context, entity T) error

	// GetByID retrieves an entity by id.
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByCode retrieves an entity by unique code.
	GetByCode(ctx context.Context, code string) (T, error)

	// Update modifies an existing entity with optimistic locking.
	Update(ctx context.Context, entity T) error

	// SetDeletionMark sets or clears the soft-delete mark. Hard delete
	// is intentionally not exposed; the ledger references catalog rows.
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	// List retrieves entities with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// Exists checks whether an entity with the given id exists.
	Exists(ctx context.Context, id id.ID) (bool, error)

	// ExistsByCode checks whether an entity with the given code exists.
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// HookEvent represents a lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook runs at a specific lifecycle point.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks registered for the event, stopping at the
// first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }

// OnBeforeDelete registers a hook to run before delete.
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }
