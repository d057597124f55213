package azurevision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVisionServer(t *testing.T, statuses ...string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		switch r.URL.Path {
		case "/vision/v3.2/read/analyze":
			assert.Equal(t, http.MethodPost, r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "png-bytes", string(body))
			w.Header().Set("Operation-Location", srv.URL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case "/operations/1":
			i := int(atomic.AddInt32(&polls, 1)) - 1
			status := statuses[len(statuses)-1]
			if i < len(statuses) {
				status = statuses[i]
			}
			w.Header().Set("Content-Type", "application/json")
			if status == statusSucceeded {
				_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":{"readResults":[
					{"page":1,"lines":[{"text":"E = mc^2"},{"text":"F = ma"}]},
					{"page":2,"lines":[{"text":"PR: hal 42"}]}]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &polls
}

func fastOptions() Options {
	return Options{PollAttempts: 3, PollInterval: time.Millisecond}
}

func TestReadJoinsLines(t *testing.T) {
	srv, polls := newVisionServer(t, "notStarted", "running", statusSucceeded)
	c := New(srv.URL, "test-key", fastOptions(), nil)

	text, err := c.Read(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "E = mc^2\nF = ma\nPR: hal 42\n", text)
	assert.EqualValues(t, 3, atomic.LoadInt32(polls))
}

func TestReadFailedOperation(t *testing.T) {
	srv, _ := newVisionServer(t, statusFailed)
	_, err := New(srv.URL, "test-key", fastOptions(), nil).Read(context.Background(), []byte("png-bytes"))
	assert.ErrorIs(t, err, ErrOperationFailed)
}

func TestReadGivesUpAfterAttempts(t *testing.T) {
	srv, polls := newVisionServer(t, "running")
	_, err := New(srv.URL, "test-key", fastOptions(), nil).Read(context.Background(), []byte("png-bytes"))
	assert.ErrorIs(t, err, ErrOperationTimedOut)
	assert.EqualValues(t, 3, atomic.LoadInt32(polls))
}

func TestReadSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401","message":"Access denied"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", fastOptions(), nil).Read(context.Background(), []byte("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, err.Error(), "Azure Vision API error: ")
	assert.Contains(t, err.Error(), "Access denied")
}

func TestReadMissingOperationLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := New(srv.URL+"/", "k", fastOptions(), nil).Read(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrMissingLocation)
}

func TestReadNotConfigured(t *testing.T) {
	_, err := New("", "", Options{}, nil).Read(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
