package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/internal/domains/note"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

type noteFixture struct {
	users    *fakeUsers
	repo     *memoryNotes
	replier  *stubReplier
	handler  http.Handler
	todayKey string
}

func newNoteFixture() *noteFixture {
	f := &noteFixture{
		users:    newFakeUsers("eka", "fajar"),
		repo:     &memoryNotes{},
		replier:  &stubReplier{answer: "- Fractions\n- Decimals"},
		todayKey: time.Now().UTC().Format(note.DateLayout),
	}
	f.users.devices["esp32-eka"] = "eka"

	h := NewNoteHandler(note.NewNoteService(f.repo, f.replier, Logger.NewNop()), f.users, Logger.NewNop())
	auth := AuthMiddleware(f.users, testCookie, Logger.NewNop())

	r := newEngine()
	notes := r.Group("/api/notes")
	notes.POST("", OptionalAuthMiddleware(f.users, testCookie), h.CreateNote)
	notes.GET("", auth, h.GetNotes)
	notes.DELETE("", auth, h.ClearNotes)
	notes.GET("/dates", auth, h.GetNoteDates)
	notes.POST("/summary", auth, h.SummarizeNotes)
	f.handler = r
	return f
}

func TestCreateNoteFromLinkedDevice(t *testing.T) {
	f := newNoteFixture()

	w := doJSON(t, f.handler, http.MethodPost, "/api/notes", note.CreateNoteRequest{Text: "  Fractions recap ", DeviceID: "esp32-eka"}, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[NoteCreatedResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Note received and saved successfully", resp.Message)
	assert.Equal(t, "eka", resp.Note.UserID)
	assert.Equal(t, "esp32-eka", resp.Note.DeviceID)
	assert.Equal(t, "Fractions recap", resp.Note.Text)
	assert.Equal(t, f.todayKey, resp.Note.DateKey)
}

func TestCreateNoteOwnerResolution(t *testing.T) {
	f := newNoteFixture()

	w := doJSON(t, f.handler, http.MethodPost, "/api/notes", note.CreateNoteRequest{Text: "hi", DeviceID: "esp32-unknown"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Device is not linked to any account", decode[ErrorResponse](t, w).Error)

	w = doJSON(t, f.handler, http.MethodPost, "/api/notes", note.CreateNoteRequest{Text: "hi"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid device ID is required", decode[ErrorResponse](t, w).Error)

	w = doJSON(t, f.handler, http.MethodPost, "/api/notes", note.CreateNoteRequest{Text: "typed on the web"}, tokenFor("fajar"))
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[NoteCreatedResponse](t, w).Note
	assert.Equal(t, "fajar", created.UserID)
	assert.Equal(t, note.UnknownDevice, created.DeviceID)
}

func TestCreateNoteRequiresText(t *testing.T) {
	f := newNoteFixture()
	for _, body := range []any{note.CreateNoteRequest{Text: "   ", DeviceID: "esp32-eka"}, `{"text": 42}`, "{"} {
		w := doJSON(t, f.handler, http.MethodPost, "/api/notes", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Text is required and must be a string", decode[ErrorResponse](t, w).Error)
	}
	assert.Empty(t, f.repo.notes)
}

func TestListAndClearNotes(t *testing.T) {
	f := newNoteFixture()
	f.repo.add(note.Note{ID: "old", UserID: "eka", DeviceID: "d", Text: "yesterday", DateKey: "2024-05-13", Timestamp: time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)})
	f.repo.add(note.Note{ID: "a", UserID: "eka", DeviceID: "d", Text: "first", DateKey: "2024-05-14", Timestamp: time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC)})
	f.repo.add(note.Note{ID: "b", UserID: "eka", DeviceID: "d", Text: "second", DateKey: "2024-05-14", Timestamp: time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)})
	f.repo.add(note.Note{ID: "x", UserID: "fajar", DeviceID: "d", Text: "not yours", DateKey: "2024-05-14", Timestamp: time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC)})
	token := tokenFor("eka")

	w := doJSON(t, f.handler, http.MethodGet, "/api/notes?date=2024-05-14", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, f.handler, http.MethodGet, "/api/notes?date=2024-05-14", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[NotesResponse](t, w)
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Notes, 2)
	assert.Equal(t, "b", list.Notes[0].ID)

	w = doJSON(t, f.handler, http.MethodGet, "/api/notes?date=14-05-2024", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Date must be formatted YYYY-MM-DD", decode[ErrorResponse](t, w).Error)

	w = doJSON(t, f.handler, http.MethodGet, "/api/notes/dates", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2024-05-14", "2024-05-13"}, decode[NoteDatesResponse](t, w).Dates)

	w = doJSON(t, f.handler, http.MethodDelete, "/api/notes?date=2024-05-14", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := decode[ClearNotesResponse](t, w)
	assert.True(t, cleared.Success)
	assert.Equal(t, int64(2), cleared.Deleted)

	w = doJSON(t, f.handler, http.MethodGet, "/api/notes?date=2024-05-14", nil, token)
	assert.Equal(t, 0, decode[NotesResponse](t, w).Count)
	w = doJSON(t, f.handler, http.MethodGet, "/api/notes?date=2024-05-14", nil, tokenFor("fajar"))
	assert.Equal(t, 1, decode[NotesResponse](t, w).Count)
}

func TestListDefaultsToToday(t *testing.T) {
	f := newNoteFixture()
	w := doJSON(t, f.handler, http.MethodPost, "/api/notes", note.CreateNoteRequest{Text: "today", DeviceID: "esp32-eka"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, f.handler, http.MethodGet, "/api/notes", nil, tokenFor("eka"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[NotesResponse](t, w).Count)
}

func TestSummarizeNotes(t *testing.T) {
	f := newNoteFixture()
	token := tokenFor("eka")

	w := doJSON(t, f.handler, http.MethodPost, "/api/notes/summary", note.SummaryRequest{Date: "2024-05-14", Language: "english"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No notes for this date", decode[ErrorResponse](t, w).Error)

	f.repo.add(note.Note{ID: "a", UserID: "eka", DeviceID: "esp32-eka", Text: "Fractions", DateKey: "2024-05-14", Timestamp: time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC)})

	w = doJSON(t, f.handler, http.MethodPost, "/api/notes/summary", note.SummaryRequest{Date: "2024-05-14", Language: "klingon"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Language must be english or indonesian", decode[ErrorResponse](t, w).Error)

	w = doJSON(t, f.handler, http.MethodPost, "/api/notes/summary", note.SummaryRequest{Date: "2024-05-14", Language: "indonesian"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "- Fractions\n- Decimals", decode[SummaryResponse](t, w).Summary)
	require.Len(t, f.replier.prompts, 1)
	assert.Equal(t, "[2024-05-14 08:00:00] [esp32-eka] Fractions", f.replier.prompts[0])
}
