// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCompleteSendsOpenAIPayload(t *testing.T) {
	var gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"4"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(ProviderConfig{
		Name:        "deepseek",
		BaseURL:     srv.URL,
		APIKey:      "sk-test",
		Model:       "deepseek-chat",
		Temperature: 0.7,
		MaxTokens:   1000,
	})

	assert.Equal(t, "deepseek", client.Provider())
	assert.Equal(t, "deepseek-chat", client.Model())

	content, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "You are a fact-checker and verifier."},
		{Role: "user", Content: "What is 2+2?"},
	}, Options{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "4", content)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "deepseek-chat", gjson.GetBytes(gotBody, "model").String())
	assert.Equal(t, "json_object", gjson.GetBytes(gotBody, "response_format.type").String())
	assert.Equal(t, int64(2), gjson.GetBytes(gotBody, "messages.#").Int())
	assert.Equal(t, 0.7, gjson.GetBytes(gotBody, "temperature").Float())
}

func TestCompleteModelOverride(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(ProviderConfig{Name: "openai", BaseURL: srv.URL, Model: "gpt-4"})
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{ModelOverride: "gpt-4-turbo"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo", gjson.GetBytes(gotBody, "model").String())
}

func TestCompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	client := NewClient(ProviderConfig{Name: "deepseek", BaseURL: srv.URL, Model: "deepseek-chat"})
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
}

func TestCompleteDecodesGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"choices":[{"message":{"content":"compressed"}}]}`))
		_ = gz.Close()
	}))
	defer srv.Close()

	client := NewClient(ProviderConfig{Name: "openai", BaseURL: srv.URL, Model: "gpt-4"})
	content, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "compressed", content)
}

func TestCompleteMissingBaseURL(t *testing.T) {
	client := NewClient(ProviderConfig{Name: "claude"})
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestCompleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(ProviderConfig{Name: "deepseek", BaseURL: srv.URL, Model: "deepseek-chat"})
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	assert.Error(t, err)
}
