package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

// StageListRepository implements models.Repository[*models.StageList] over the saved-lists collection.
//
// The collection is one JSON array, so every write is a read-modify-write guarded by a mutex.
type StageListRepository struct {
	store *LocalStore
	mu    sync.Mutex
}

var _ models.Repository[*models.StageList] = (*StageListRepository)(nil)

// NewStageListRepository creates a StageListRepository.
func NewStageListRepository(store *LocalStore) *StageListRepository {
	return &StageListRepository{store: store}
}

// Create appends a new list. The id must be unused.
func (r *StageListRepository) Create(ctx context.Context, list *models.StageList) error {
	if list.ID == "" {
		return fmt.Errorf("%w: stage list id is required", shared.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lists, err := r.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(lists, list.ID) >= 0 {
		return fmt.Errorf("%w: %s", shared.ErrListExists, list.ID)
	}
	return r.save(ctx, append(lists, list))
}

// Get returns the list with id.
func (r *StageListRepository) Get(ctx context.Context, id string) (*models.StageList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lists, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(lists, id); i >= 0 {
		return lists[i], nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
}

// Update replaces an existing list and stamps its UpdatedAt.
func (r *StageListRepository) Update(ctx context.Context, list *models.StageList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lists, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(lists, list.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrListNotFound, list.ID)
	}

	list.UpdatedAt = time.Now().UTC()
	lists[i] = list
	return r.save(ctx, lists)
}

// Upsert replaces the list in place or appends it when new.
func (r *StageListRepository) Upsert(ctx context.Context, list *models.StageList) error {
	if list.ID == "" {
		return fmt.Errorf("%w: stage list id is required", shared.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lists, err := r.load(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	list.UpdatedAt = now
	if i := indexOf(lists, list.ID); i >= 0 {
		lists[i] = list
	} else {
		if list.CreatedAt.IsZero() {
			list.CreatedAt = now
		}
		lists = append(lists, list)
	}
	return r.save(ctx, lists)
}

// Delete removes the list with id.
func (r *StageListRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lists, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(lists, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
	}
	return r.save(ctx, append(lists[:i], lists[i+1:]...))
}

// List returns every saved list in storage order.
func (r *StageListRepository) List(ctx context.Context) ([]*models.StageList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// ReplaceAll overwrites the collection, keeping the given timestamps.
func (r *StageListRepository) ReplaceAll(ctx context.Context, lists []*models.StageList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, lists)
}

func (r *StageListRepository) load(ctx context.Context) ([]*models.StageList, error) {
	var lists []*models.StageList
	if _, err := r.store.getOr(ctx, KeyStageLists, &lists); err != nil {
		return nil, fmt.Errorf("failed to load stage lists: %w", err)
	}
	return lists, nil
}

func (r *StageListRepository) save(ctx context.Context, lists []*models.StageList) error {
	if lists == nil {
		lists = []*models.StageList{}
	}
	if err := r.store.Set(ctx, KeyStageLists, lists); err != nil {
		return fmt.Errorf("failed to save stage lists: %w", err)
	}
	return nil
}

func indexOf(lists []*models.StageList, id string) int {
	for i, l := range lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}
