// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/traylinx/crosscheck/internal/transport"
)

// judgeServer fakes an OpenAI-compatible backend whose assistant message
// content is the given string.
func judgeServer(t *testing.T, reply string, capture *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			buf, _ := io.ReadAll(r.Body)
			*capture = buf
		}
		w.Header().Set("Content-Type", "application/json")
		body := fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, reply)
		_, _ = w.Write([]byte(body))
	}))
}

func newTestChatAdapter(srvURL string) *ChatAdapter {
	client := transport.NewClient(transport.ProviderConfig{
		Name:    "deepseek",
		BaseURL: srvURL,
		APIKey:  "sk-test",
		Model:   "deepseek-chat",
	})
	return NewChatAdapter(client, nil)
}

func TestChatAdapterParsesStrictVerdict(t *testing.T) {
	var sent []byte
	srv := judgeServer(t, `{"verified":true,"confidence":0.92,"feedback":"accurate","corrections":[]}`, &sent)
	defer srv.Close()

	adapter := newTestChatAdapter(srv.URL)
	verdict, err := adapter.Judge(context.Background(), "What is 2+2?", "4")
	require.NoError(t, err)

	assert.Equal(t, "deepseek", verdict.Source)
	assert.True(t, verdict.Verified)
	assert.Equal(t, 0.92, verdict.Confidence)
	assert.Equal(t, "accurate", verdict.Feedback)

	// The judge call must request JSON mode and carry the verifier role.
	assert.Equal(t, "json_object", gjson.GetBytes(sent, "response_format.type").String())
	assert.Equal(t, "You are a fact-checker and verifier.", gjson.GetBytes(sent, "messages.0.content").String())
	assert.Contains(t, gjson.GetBytes(sent, "messages.1.content").String(), "What is 2+2?")
	assert.Contains(t, gjson.GetBytes(sent, "messages.1.content").String(), "Response to verify: 4")
}

func TestChatAdapterRejectsNonJSONReply(t *testing.T) {
	srv := judgeServer(t, "Sure! The answer looks correct to me.", nil)
	defer srv.Close()

	adapter := newTestChatAdapter(srv.URL)
	_, err := adapter.Judge(context.Background(), "q", "r")
	require.Error(t, err)

	var adapterErr *AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "deepseek", adapterErr.Provider)
}

func TestChatAdapterRejectsJSONWithoutVerified(t *testing.T) {
	srv := judgeServer(t, `{"feedback":"looks fine"}`, nil)
	defer srv.Close()

	adapter := newTestChatAdapter(srv.URL)
	_, err := adapter.Judge(context.Background(), "q", "r")

	var adapterErr *AdapterError
	require.True(t, errors.As(err, &adapterErr))
}

func TestChatAdapterWrapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := newTestChatAdapter(srv.URL)
	_, err := adapter.Judge(context.Background(), "q", "r")

	var adapterErr *AdapterError
	require.True(t, errors.As(err, &adapterErr))
	var statusErr *transport.StatusError
	assert.True(t, errors.As(adapterErr.Err, &statusErr))
}

func TestUnsupportedAdapterNeverFails(t *testing.T) {
	adapter := &UnsupportedAdapter{Provider: "llama-local"}
	verdict, err := adapter.Judge(context.Background(), "q", "r")
	require.NoError(t, err)
	assert.False(t, verdict.Verified)
	assert.Contains(t, verdict.Feedback, "llama-local")
}

func TestLoadPromptSetDefaults(t *testing.T) {
	ps, err := LoadPromptSet("")
	require.NoError(t, err)
	assert.Equal(t, "You are a fact-checker and verifier.", ps.System)

	rendered := ps.RenderFactCheck("the query", "the answer")
	assert.Contains(t, rendered, "Query: the query")
	assert.Contains(t, rendered, "Response to verify: the answer")
	assert.NotContains(t, rendered, "{query}")
}
