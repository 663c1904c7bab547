package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
	"golang.org/x/oauth2"
)

func newTestCloud(t *testing.T) (*fakeBackend, *CloudService) {
	t.Helper()

	b, server := newFakeBackend(t)
	b.access["access-static"] = true
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-static", TokenType: "bearer"})
	api := NewAPIService(server.URL, server.Client(), WithTokenSource(ts), WithRateLimit(100))
	return b, NewCloudService(api, time.Second)
}

func TestCloudService(t *testing.T) {
	ctx := context.Background()

	t.Run("Health", func(t *testing.T) {
		_, cloud := newTestCloud(t)
		if err := cloud.Health(ctx); err != nil {
			t.Errorf("expected healthy backend, got %v", err)
		}
	})

	t.Run("Health Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		cloud := NewCloudService(NewAPIService(server.URL, nil), time.Second)
		if err := cloud.Health(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Health Timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		cloud := NewCloudService(NewAPIService(server.URL, nil), 50*time.Millisecond)
		start := time.Now()
		err := cloud.Health(ctx)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("health check should honor its timeout")
		}
	})

	t.Run("Create And ListAll", func(t *testing.T) {
		_, cloud := newTestCloud(t)

		list := models.SeedStageList()
		created, err := cloud.Create(ctx, list)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if created.ID != list.ID || len(created.Songs) != 5 {
			t.Errorf("unexpected created list %+v", created)
		}

		lists, err := cloud.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(lists) != 1 || lists[0].Name != models.DefaultListName {
			t.Errorf("unexpected lists %+v", lists)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		_, cloud := newTestCloud(t)

		name := "Renamed"
		_, err := cloud.Update(ctx, "missing", models.ListPatch{Name: &name})
		if !errors.Is(err, shared.ErrListNotFound) {
			t.Errorf("expected ErrListNotFound, got %v", err)
		}
	})

	t.Run("Update Merges", func(t *testing.T) {
		b, cloud := newTestCloud(t)
		_, _ = cloud.Create(ctx, models.SeedStageList())

		name := "Renamed"
		updated, err := cloud.Update(ctx, models.DefaultListID, models.ListPatch{Name: &name})
		if err != nil {
			t.Fatal(err)
		}
		if updated.Name != "Renamed" || len(updated.Songs) != 5 {
			t.Errorf("expected name merged and songs kept, got %+v", updated)
		}
		if stored, _ := b.stored(models.DefaultListID); stored.Name != "Renamed" {
			t.Error("backend should hold the merged list")
		}
	})

	t.Run("Upsert Creates Then Updates", func(t *testing.T) {
		b, cloud := newTestCloud(t)

		list := models.NewStageList("list_new", "Fresh")
		if _, err := cloud.Upsert(ctx, list); err != nil {
			t.Fatalf("Upsert() create error = %v", err)
		}

		list.Name = "Fresh v2"
		if _, err := cloud.Upsert(ctx, list); err != nil {
			t.Fatalf("Upsert() update error = %v", err)
		}

		stored, n := b.stored("list_new")
		if n != 1 || stored.Name != "Fresh v2" {
			t.Errorf("unexpected backend list %+v of %d", stored, n)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		b, cloud := newTestCloud(t)
		_, _ = cloud.Create(ctx, models.NewStageList("a", "A"))

		if err := cloud.Delete(ctx, "a"); err != nil {
			t.Fatal(err)
		}
		if _, n := b.stored("a"); n != 0 {
			t.Error("list should be gone")
		}
	})

	t.Run("Settings", func(t *testing.T) {
		_, cloud := newTestCloud(t)

		s, err := cloud.GetSettings(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if s != models.DefaultSettings() {
			t.Errorf("expected defaults, got %+v", s)
		}

		vol := 0.0
		updated, err := cloud.UpdateSettings(ctx, models.SettingsPatch{MetronomeVolume: &vol})
		if err != nil {
			t.Fatal(err)
		}
		if updated.MetronomeVolume != 0 || updated.MetronomeSound != "click" {
			t.Errorf("expected only volume written, got %+v", updated)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, server := newFakeBackend(t)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "forged"})
		cloud := NewCloudService(NewAPIService(server.URL, nil, WithTokenSource(ts)), time.Second)

		if _, err := cloud.ListAll(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
