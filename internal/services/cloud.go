package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

// DefaultHealthTimeout bounds the reachability probe run before the initial cloud load.
const DefaultHealthTimeout = 3 * time.Second

// CloudService implements [Remote] over the backend REST API.
type CloudService struct {
	api           *APIService
	healthTimeout time.Duration
}

var _ Remote = (*CloudService)(nil)

// NewCloudService creates a CloudService. The api should carry a token source.
func NewCloudService(api *APIService, healthTimeout time.Duration) *CloudService {
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}
	return &CloudService{api: api, healthTimeout: healthTimeout}
}

type listsResponse struct {
	Lists []*models.StageList `json:"lists"`
}

type listResponse struct {
	Success bool              `json:"success"`
	List    *models.StageList `json:"list"`
}

// Health requests /health without credentials within the health timeout.
func (c *CloudService) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	probe := NewAPIService(c.api.BaseURL(), c.api.HTTPClient())
	var body struct {
		Status string `json:"status"`
	}
	if err := probe.JSON(ctx, http.MethodGet, "/health", nil, &body); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w after %s", shared.ErrServiceUnavailable, shared.ErrTimeout, c.healthTimeout)
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("%w: health status %q", shared.ErrServiceUnavailable, body.Status)
	}
	return nil
}

func (c *CloudService) ListAll(ctx context.Context) ([]*models.StageList, error) {
	var resp listsResponse
	if err := c.api.JSON(ctx, http.MethodGet, "/lists", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}
	return resp.Lists, nil
}

func (c *CloudService) Create(ctx context.Context, list *models.StageList) (*models.StageList, error) {
	var resp listResponse
	if err := c.api.JSON(ctx, http.MethodPost, "/lists", list, &resp); err != nil {
		return nil, fmt.Errorf("failed to create list %s: %w", list.ID, err)
	}
	return resp.List, nil
}

func (c *CloudService) Update(ctx context.Context, id string, patch models.ListPatch) (*models.StageList, error) {
	var resp listResponse
	if err := c.api.JSON(ctx, http.MethodPut, "/lists/"+url.PathEscape(id), patch, &resp); err != nil {
		return nil, fmt.Errorf("failed to update list %s: %w", id, err)
	}
	return resp.List, nil
}

// Upsert sends the whole list with upsert=true so the backend creates it when missing.
func (c *CloudService) Upsert(ctx context.Context, list *models.StageList) (*models.StageList, error) {
	var resp listResponse
	path := "/lists/" + url.PathEscape(list.ID) + "?upsert=true"
	if err := c.api.JSON(ctx, http.MethodPut, path, list, &resp); err != nil {
		return nil, fmt.Errorf("failed to upsert list %s: %w", list.ID, err)
	}
	return resp.List, nil
}

func (c *CloudService) Delete(ctx context.Context, id string) error {
	if err := c.api.JSON(ctx, http.MethodDelete, "/lists/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete list %s: %w", id, err)
	}
	return nil
}

func (c *CloudService) GetSettings(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	if err := c.api.JSON(ctx, http.MethodGet, "/settings", nil, &s); err != nil {
		return s, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return s, nil
}

func (c *CloudService) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	var resp struct {
		Success  bool            `json:"success"`
		Settings models.Settings `json:"settings"`
	}
	if err := c.api.JSON(ctx, http.MethodPut, "/settings", patch, &resp); err != nil {
		return models.Settings{}, fmt.Errorf("failed to update settings: %w", err)
	}
	return resp.Settings, nil
}
