package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/stagelist/internal/kvstore"
	"github.com/desertthunder/stagelist/internal/models"
	"github.com/go-chi/chi/v5"
)

func listKey(uid, id string) string { return "lists:" + uid + ":" + id }

func settingKey(uid, field string) string { return "settings:" + uid + ":" + field }

// userID returns the uid of the verified caller. RequireAuth guarantees the claims exist.
func userID(r *http.Request) string {
	claims, _ := ClaimsFrom(r.Context())
	return claims.UserID
}

func (s *Server) putList(ctx context.Context, uid string, list *models.StageList) error {
	list.UserID = uid
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, listKey(uid, list.ID), data)
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	entries, err := s.store.GetByPrefix(r.Context(), listKey(uid, ""))
	if err != nil {
		s.logger.Error("failed to fetch lists", "user", uid, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch lists")
		return
	}

	lists := make([]*models.StageList, 0, len(entries))
	for _, e := range entries {
		var l models.StageList
		if err := json.Unmarshal(e.Value, &l); err != nil {
			s.logger.Warn("skipping corrupt list", "key", e.Key, "err", err)
			continue
		}
		lists = append(lists, &l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var list models.StageList
	if !decodeJSON(w, r, &list) {
		return
	}
	if list.ID == "" {
		writeError(w, http.StatusBadRequest, "List id is required")
		return
	}

	uid := userID(r)
	if err := s.putList(r.Context(), uid, &list); err != nil {
		s.logger.Error("failed to create list", "user", uid, "list", list.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "list": &list})
}

// handleUpdateList merges name, songs, nextId and updatedAt into a stored list.
// With ?upsert=true a missing list is created from the body instead of reported as 404.
func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	uid, id := userID(r), chi.URLParam(r, "id")
	ctx := r.Context()

	data, err := s.store.Get(ctx, listKey(uid, id))
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		if r.URL.Query().Get("upsert") != "true" {
			writeError(w, http.StatusNotFound, "List not found")
			return
		}
		var list models.StageList
		if !decodeJSON(w, r, &list) {
			return
		}
		list.ID = id
		if err := s.putList(ctx, uid, &list); err != nil {
			s.logger.Error("failed to upsert list", "user", uid, "list", id, "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to update list")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "list": &list})
		return
	case err != nil:
		s.logger.Error("failed to read list", "user", uid, "list", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to update list")
		return
	}

	var existing models.StageList
	if err := json.Unmarshal(data, &existing); err != nil {
		s.logger.Error("corrupt list", "user", uid, "list", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to update list")
		return
	}
	var patch models.ListPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	patch.Apply(&existing)

	if err := s.putList(ctx, uid, &existing); err != nil {
		s.logger.Error("failed to update list", "user", uid, "list", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to update list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "list": &existing})
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	uid, id := userID(r), chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), listKey(uid, id))
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		s.logger.Error("failed to delete list", "user", uid, "list", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// loadSettings reads both settings keys. Absent keys take the defaults; a stored volume of 0 is kept.
func (s *Server) loadSettings(ctx context.Context, uid string) (models.Settings, error) {
	settings := models.DefaultSettings()
	fields := []struct {
		name string
		dst  any
	}{
		{"metronomeSound", &settings.MetronomeSound},
		{"metronomeVolume", &settings.MetronomeVolume},
	}
	for _, f := range fields {
		data, err := s.store.Get(ctx, settingKey(uid, f.name))
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return settings, err
		}
		if err := json.Unmarshal(data, f.dst); err != nil {
			s.logger.Warn("ignoring corrupt setting", "user", uid, "field", f.name, "err", err)
		}
	}
	return settings, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	settings, err := s.loadSettings(r.Context(), uid)
	if err != nil {
		s.logger.Error("failed to fetch settings", "user", uid, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePutSettings writes only the fields present in the body.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.MetronomeSound != nil && *patch.MetronomeSound == "" {
		writeError(w, http.StatusBadRequest, "metronomeSound must not be empty")
		return
	}
	if patch.MetronomeVolume != nil {
		if err := models.ValidateVolume(*patch.MetronomeVolume); err != nil {
			writeError(w, http.StatusBadRequest, "metronomeVolume must be between 0 and 1")
			return
		}
	}

	uid, ctx := userID(r), r.Context()
	updates := map[string]any{}
	if patch.MetronomeSound != nil {
		updates["metronomeSound"] = *patch.MetronomeSound
	}
	if patch.MetronomeVolume != nil {
		updates["metronomeVolume"] = *patch.MetronomeVolume
	}
	for field, v := range updates {
		data, _ := json.Marshal(v)
		if err := s.store.Set(ctx, settingKey(uid, field), data); err != nil {
			s.logger.Error("failed to update settings", "user", uid, "field", field, "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
	}

	settings, err := s.loadSettings(ctx, uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings})
}
