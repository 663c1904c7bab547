package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/setlist"
	"github.com/desertthunder/stagelist/internal/shared"
)

// SavedLists returns every saved list in storage order.
func (s *Session) SavedLists(ctx context.Context) ([]*models.StageList, error) {
	return s.lists.List(ctx)
}

// SaveAs stores the current songs as a new list named name and makes it current.
func (s *Session) SaveAs(ctx context.Context, name string) (*models.StageList, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.listID = shared.NewListID()
	s.title = name
	created := s.currentLocked()
	if err := s.lists.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to save list: %w", err)
	}
	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// LoadList makes the saved list id current. The active song is cleared.
func (s *Session) LoadList(ctx context.Context, id string) error {
	list, err := s.lists.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, list)
}

// RenameList renames a saved list. Renaming the current list also changes the display title.
func (s *Session) RenameList(ctx context.Context, id, name string) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.listID {
		s.title = name
		return s.commitLocked(ctx)
	}

	list, err := s.lists.Get(ctx, id)
	if err != nil {
		return err
	}
	list.Name = name
	if err := s.lists.Update(ctx, list); err != nil {
		return fmt.Errorf("failed to rename list: %w", err)
	}
	s.notifyList(list)
	return nil
}

// DeleteList removes a saved list. Deleting the current list loads the first remaining one,
// or starts a new empty list when none remain.
func (s *Session) DeleteList(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lists.Delete(ctx, id); err != nil {
		return err
	}
	s.notifyDelete(id)

	if id != s.listID {
		return nil
	}

	remaining, err := s.lists.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to read saved lists: %w", err)
	}
	if len(remaining) > 0 {
		return s.loadLocked(ctx, remaining[0])
	}
	return s.newListLocked(ctx)
}

// NewList starts an empty list named "New Stage List" with its counter at 1.
func (s *Session) NewList(ctx context.Context) (*models.StageList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.newListLocked(ctx); err != nil {
		return nil, err
	}
	return s.currentLocked(), nil
}

// DuplicateList copies a saved list under the name "<name> (Copy)" and loads the copy.
func (s *Session) DuplicateList(ctx context.Context, id string) (*models.StageList, error) {
	src, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// in-memory state wins for the current list
	if id == s.listID {
		src = s.currentLocked()
	}

	dup := src.Clone()
	dup.ID = shared.NewListID()
	dup.Name = src.Name + " (Copy)"
	dup.CreatedAt = time.Now().UTC()
	dup.UpdatedAt = dup.CreatedAt
	if err := s.lists.Create(ctx, dup); err != nil {
		return nil, fmt.Errorf("failed to duplicate list: %w", err)
	}
	s.notifyList(dup)

	if err := s.loadLocked(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// ImportList stores list as a new saved list and loads it. A colliding id is replaced with a fresh one.
func (s *Session) ImportList(ctx context.Context, list *models.StageList) error {
	if err := list.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imported := list.Clone()
	imported.UserID = ""
	err := s.lists.Create(ctx, imported)
	if errors.Is(err, shared.ErrListExists) {
		imported.ID = shared.NewListID()
		err = s.lists.Create(ctx, imported)
	}
	if err != nil {
		return fmt.Errorf("failed to import list: %w", err)
	}
	s.notifyList(imported)
	return s.loadLocked(ctx, imported)
}

func (s *Session) loadLocked(ctx context.Context, list *models.StageList) error {
	s.sel.Clear()
	s.updatePlaybackLocked()

	s.listID = list.ID
	s.title = list.Name
	s.list = setlist.FromStageList(list)

	if err := s.workspace.Save(ctx, s.snapshotWorkspace()); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

func (s *Session) newListLocked(ctx context.Context) error {
	s.sel.Clear()
	s.updatePlaybackLocked()

	s.listID = shared.NewListID()
	s.title = models.NewListName
	s.list = setlist.New(nil, 1)
	return s.commitLocked(ctx)
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: list name must not be empty", shared.ErrInvalidInput)
	}
	return name, nil
}
