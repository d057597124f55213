package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/pkg/assistant"
)

func TestCompleteMapsRequestAndChoices(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"Jawabannya 42."}}]}`))
	}))
	defer srv.Close()

	p := New("test-key", srv.URL+"/v1", "")
	out, err := p.Complete(context.Background(), assistant.Request{
		System:      "sys",
		Prompt:      "question",
		Temperature: 0.5,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jawabannya 42."}, out.Choices)
	assert.Equal(t, "chatcmpl-1", out.ID)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 100, body["max_tokens"])
	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "question", msgs[1].(map[string]interface{})["content"])
}

func TestCompletePropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := New("bad", srv.URL+"/v1", "gpt-4o-mini")
	_, err := p.Complete(context.Background(), assistant.Request{Prompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}
