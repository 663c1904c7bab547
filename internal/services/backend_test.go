package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/stagelist/internal/models"
)

// fakeBackend imitates the REST backend closely enough to drive the clients.
type fakeBackend struct {
	mu        sync.Mutex
	users     map[string]string
	lists     map[string]*models.StageList
	order     []string
	settings  models.Settings
	expiresIn int
	seq       int
	refresh   map[string]string // refresh token -> email
	access    map[string]bool

	rejectSignIns  int
	rejectRefresh  bool
	passwordGrants int
	refreshGrants  int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		users:     map[string]string{},
		lists:     map[string]*models.StageList{},
		settings:  models.DefaultSettings(),
		expiresIn: 3600,
		refresh:   map[string]string{},
		access:    map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /signup", b.signup)
	mux.HandleFunc("POST /auth/token", b.token)
	mux.HandleFunc("GET /lists", b.authed(b.listAll))
	mux.HandleFunc("POST /lists", b.authed(b.create))
	mux.HandleFunc("PUT /lists/{id}", b.authed(b.update))
	mux.HandleFunc("DELETE /lists/{id}", b.authed(b.remove))
	mux.HandleFunc("GET /settings", b.authed(b.getSettings))
	mux.HandleFunc("PUT /settings", b.authed(b.putSettings))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return b, server
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var body struct{ Email, Password, Name string }
	json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[body.Email]; ok {
		writeTestJSON(w, http.StatusBadRequest, map[string]string{"error": "An account with this email already exists. Please sign in instead."})
		return
	}
	b.users[body.Email] = body.Password
	writeTestJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]string{"id": "u1", "email": body.Email, "name": body.Name}})
}

func (b *fakeBackend) token(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()

	b.mu.Lock()
	defer b.mu.Unlock()

	var email string
	switch r.PostForm.Get("grant_type") {
	case "password":
		b.passwordGrants++
		email = r.PostForm.Get("username")
		if b.rejectSignIns > 0 || b.users[email] == "" || b.users[email] != r.PostForm.Get("password") {
			if b.rejectSignIns > 0 {
				b.rejectSignIns--
			}
			writeTestJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid email or password"})
			return
		}
	case "refresh_token":
		b.refreshGrants++
		var ok bool
		email, ok = b.refresh[r.PostForm.Get("refresh_token")]
		if !ok || b.rejectRefresh {
			writeTestJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid refresh token"})
			return
		}
		delete(b.refresh, r.PostForm.Get("refresh_token"))
	default:
		writeTestJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	b.seq++
	access, refresh := fmt.Sprintf("access-%d", b.seq), fmt.Sprintf("refresh-%d", b.seq)
	b.access[access] = true
	b.refresh[refresh] = email
	writeTestJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"token_type":    "bearer",
		"refresh_token": refresh,
		"expires_in":    b.expiresIn,
		"user_id":       "u1",
		"email":         email,
	})
}

func (b *fakeBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		ok := b.access[tok]
		b.mu.Unlock()
		if !ok {
			writeTestJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) listAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lists := []*models.StageList{}
	for _, id := range b.order {
		lists = append(lists, b.lists[id])
	}
	writeTestJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

func (b *fakeBackend) create(w http.ResponseWriter, r *http.Request) {
	var list models.StageList
	json.NewDecoder(r.Body).Decode(&list)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.put(&list)
	writeTestJSON(w, http.StatusOK, map[string]any{"success": true, "list": &list})
}

func (b *fakeBackend) update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.lists[id]
	if !ok {
		if r.URL.Query().Get("upsert") != "true" {
			writeTestJSON(w, http.StatusNotFound, map[string]string{"error": "List not found"})
			return
		}
		var list models.StageList
		json.NewDecoder(r.Body).Decode(&list)
		list.ID = id
		b.put(&list)
		writeTestJSON(w, http.StatusOK, map[string]any{"success": true, "list": &list})
		return
	}

	var patch models.ListPatch
	json.NewDecoder(r.Body).Decode(&patch)
	patch.Apply(existing)
	writeTestJSON(w, http.StatusOK, map[string]any{"success": true, "list": existing})
}

func (b *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lists, id)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	writeTestJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *fakeBackend) getSettings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeTestJSON(w, http.StatusOK, b.settings)
}

func (b *fakeBackend) putSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	json.NewDecoder(r.Body).Decode(&patch)

	b.mu.Lock()
	defer b.mu.Unlock()
	if patch.MetronomeSound != nil {
		b.settings.MetronomeSound = *patch.MetronomeSound
	}
	if patch.MetronomeVolume != nil {
		b.settings.MetronomeVolume = *patch.MetronomeVolume
	}
	writeTestJSON(w, http.StatusOK, map[string]any{"success": true, "settings": b.settings})
}

func (b *fakeBackend) put(list *models.StageList) {
	if _, ok := b.lists[list.ID]; !ok {
		b.order = append(b.order, list.ID)
	}
	b.lists[list.ID] = list
}

func (b *fakeBackend) grants() (password, refresh int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.passwordGrants, b.refreshGrants
}

func (b *fakeBackend) stored(id string) (*models.StageList, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists[id], len(b.lists)
}
