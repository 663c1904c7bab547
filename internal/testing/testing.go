// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/desertthunder/stagelist/internal/shared"
)

// MockRemote is an in-memory test double for services.Remote.
//
// Set HealthErr or Err to make calls fail; Calls records every method invoked.
// A non-nil HealthGate holds Health until it is closed.
type MockRemote struct {
	mu       sync.Mutex
	lists    []*models.StageList
	settings models.Settings

	HealthErr  error
	HealthGate chan struct{}
	Err        error
	Calls      []string
}

// NewMockRemote creates a MockRemote holding clones of lists and default settings.
func NewMockRemote(lists ...*models.StageList) *MockRemote {
	m := &MockRemote{settings: models.DefaultSettings()}
	for _, l := range lists {
		m.lists = append(m.lists, l.Clone())
	}
	return m
}

func (m *MockRemote) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	return m.Err
}

// CallCount returns how many times the named method ran.
func (m *MockRemote) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockRemote) Health(ctx context.Context) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, "Health")
	gate, err := m.HealthGate, m.HealthErr
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *MockRemote) ListAll(ctx context.Context) ([]*models.StageList, error) {
	if err := m.record("ListAll"); err != nil {
		return nil, err
	}
	return m.Lists(), nil
}

func (m *MockRemote) Create(ctx context.Context, list *models.StageList) (*models.StageList, error) {
	if err := m.record("Create"); err != nil {
		return nil, err
	}
	m.put(list)
	return list.Clone(), nil
}

func (m *MockRemote) Update(ctx context.Context, id string, patch models.ListPatch) (*models.StageList, error) {
	if err := m.record("Update"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lists {
		if l.ID == id {
			patch.Apply(l)
			return l.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
}

func (m *MockRemote) Upsert(ctx context.Context, list *models.StageList) (*models.StageList, error) {
	if err := m.record("Upsert"); err != nil {
		return nil, err
	}
	m.put(list)
	return list.Clone(), nil
}

func (m *MockRemote) Delete(ctx context.Context, id string) error {
	if err := m.record("Delete"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lists {
		if l.ID == id {
			m.lists = append(m.lists[:i], m.lists[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockRemote) GetSettings(ctx context.Context) (models.Settings, error) {
	if err := m.record("GetSettings"); err != nil {
		return models.Settings{}, err
	}
	return m.Settings(), nil
}

func (m *MockRemote) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	if err := m.record("UpdateSettings"); err != nil {
		return models.Settings{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if patch.MetronomeSound != nil {
		m.settings.MetronomeSound = *patch.MetronomeSound
	}
	if patch.MetronomeVolume != nil {
		m.settings.MetronomeVolume = *patch.MetronomeVolume
	}
	return m.settings, nil
}

// Lists returns clones of the stored lists.
func (m *MockRemote) Lists() []*models.StageList {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.StageList, len(m.lists))
	for i, l := range m.lists {
		out[i] = l.Clone()
	}
	return out
}

// Settings returns the stored settings.
func (m *MockRemote) Settings() models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SetSettings replaces the stored settings.
func (m *MockRemote) SetSettings(s models.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

func (m *MockRemote) put(list *models.StageList) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := list.Clone()
	for i, l := range m.lists {
		if l.ID == list.ID {
			m.lists[i] = c
			return
		}
	}
	m.lists = append(m.lists, c)
}

// MemorySessionStore is an in-memory test double for services.SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	session  *models.AuthSession
	remember *models.RememberMe
}

func (s *MemorySessionStore) LoadSession(ctx context.Context) (*models.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	c := *s.session
	return &c, nil
}

func (s *MemorySessionStore) SaveSession(ctx context.Context, session *models.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.session = &c
	return nil
}

func (s *MemorySessionStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

func (s *MemorySessionStore) LoadRememberMe(ctx context.Context) (*models.RememberMe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remember == nil {
		return nil, nil
	}
	c := *s.remember
	return &c, nil
}

func (s *MemorySessionStore) SaveRememberMe(ctx context.Context, m *models.RememberMe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.remember = &c
	return nil
}

func (s *MemorySessionStore) ClearRememberMe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remember = nil
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
