package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
	"github.com/cumulus-classroom/cumulus/internal/domains/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testCookie = "token"

// fakeUsers accepts "<userID>-token" for every known user.
type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]*user.User
	devices map[string]string

	registerErr error
	loginErr    error
	linkErr     error
}

func newFakeUsers(ids ...string) *fakeUsers {
	f := &fakeUsers{users: map[string]*user.User{}, devices: map[string]string{}}
	for _, id := range ids {
		f.users[id] = &user.User{ID: id, Username: id, Email: id + "@school.test"}
	}
	return f
}

func tokenFor(id string) string { return id + "-token" }

func (f *fakeUsers) session(id string) *user.Session {
	return &user.Session{Token: tokenFor(id), ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *fakeUsers) Register(_ context.Context, req user.RegisterRequest) (*user.UserResponse, *user.Session, error) {
	if f.registerErr != nil {
		return nil, nil, f.registerErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &user.User{ID: req.Username, Username: req.Username, Email: req.Email}
	f.users[u.ID] = u
	resp := u.ToResponse()
	return &resp, f.session(u.ID), nil
}

func (f *fakeUsers) Login(_ context.Context, req user.LoginRequest) (*user.UserResponse, *user.Session, error) {
	if f.loginErr != nil {
		return nil, nil, f.loginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == req.Email {
			resp := u.ToResponse()
			return &resp, f.session(u.ID), nil
		}
	}
	return nil, nil, user.ErrInvalidCredentials
}

func (f *fakeUsers) Me(_ context.Context, userID string) (*user.UserResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	resp := u.ToResponse()
	return &resp, nil
}

func (f *fakeUsers) LinkDevice(_ context.Context, userID, deviceID string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[deviceID] = userID
	f.users[userID].DeviceID = deviceID
	return nil
}

func (f *fakeUsers) ResolveDevice(_ context.Context, deviceID string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.devices[deviceID]
	if !ok {
		return nil, user.ErrDeviceNotLinked
	}
	return f.users[id], nil
}

func (f *fakeUsers) ValidateToken(_ context.Context, token string) (*user.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.users {
		if tokenFor(id) == token {
			return &user.Claims{UserID: id}, nil
		}
	}
	return nil, user.ErrInvalidToken
}

func (f *fakeUsers) TokenTTL() time.Duration { return time.Hour }

type memoryNotes struct {
	mu    sync.Mutex
	notes []note.Note
}

func (m *memoryNotes) Create(_ context.Context, n *note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, *n)
	return nil
}

func (m *memoryNotes) ListByDate(_ context.Context, userID, dateKey string) ([]note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []note.Note
	for _, n := range m.notes {
		if n.UserID == userID && n.DateKey == dateKey {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *memoryNotes) DeleteByDate(_ context.Context, userID, dateKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.notes[:0]
	var deleted int64
	for _, n := range m.notes {
		if n.UserID == userID && n.DateKey == dateKey {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notes = kept
	return deleted, nil
}

func (m *memoryNotes) Dates(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, n := range m.notes {
		if n.UserID == userID && !seen[n.DateKey] {
			seen[n.DateKey] = true
			out = append(out, n.DateKey)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

func (m *memoryNotes) add(n note.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
}

type stubReplier struct {
	answer string
	err    error

	mu      sync.Mutex
	systems []string
	prompts []string
}

func (s *stubReplier) Reply(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

func (s *stubReplier) ReplyWithSystem(_ context.Context, system, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systems = append(s.systems, system)
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(MethodNotAllowed)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
