// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/traylinx/crosscheck/internal/assistant"
	"github.com/traylinx/crosscheck/internal/config"
	"github.com/traylinx/crosscheck/internal/consensus"
	"github.com/traylinx/crosscheck/internal/document"
	"github.com/traylinx/crosscheck/internal/progress"
	"github.com/traylinx/crosscheck/internal/quiz"
	"github.com/traylinx/crosscheck/internal/transport"
	"github.com/traylinx/crosscheck/internal/util"
	"github.com/traylinx/crosscheck/internal/verify"
)

type stubJudge struct {
	id       string
	verified bool
}

func (s *stubJudge) ID() string { return s.id }

func (s *stubJudge) Judge(ctx context.Context, query, response string) (*verify.Verdict, error) {
	return &verify.Verdict{Source: s.id, Verified: s.verified, Feedback: "ok"}, nil
}

func newTestServer(t *testing.T, cfg *config.Config, primaryURL string) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("CROSSCHECK_STATE_DIR", t.TempDir())
	t.Setenv("CROSSCHECK_READONLY", "")

	sb, err := util.NewStateBox()
	require.NoError(t, err)
	tracker, err := progress.NewTracker(sb)
	require.NoError(t, err)
	chunker, err := document.NewChunker(0)
	require.NoError(t, err)

	var primary *transport.Client
	if primaryURL != "" {
		primary = transport.NewClient(transport.ProviderConfig{
			Name:    "deepseek",
			BaseURL: primaryURL,
			Model:   "deepseek-chat",
		})
	}

	judges := []verify.Adapter{
		&stubJudge{id: "deepseek", verified: true},
		&stubJudge{id: "openai", verified: true},
		&stubJudge{id: "claude", verified: false},
	}
	verifier := verify.NewVerifier(judges, []string{"deepseek", "openai", "claude"})

	a := assistant.New(primary, verifier, quiz.NewGenerator(primary), tracker, chunker, sb)
	return NewServer(cfg, a, consensus.NewAnalyzer(), sb)
}

func doRequest(srv *Server, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:51234"
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "version").String())
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = doRequest(srv, http.MethodGet, "/health", "", func(r *http.Request) {
		r.Header.Set("X-Request-ID", "abc-123")
	})
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestVerifyEndpoint(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/verify",
		`{"query":"What is 2+2?","response":"4"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	// 2 of 3 stub judges agree; below the verification threshold.
	assert.InDelta(t, 2.0/3.0, gjson.Get(body, "agreement_ratio").Float(), 1e-9)
	assert.False(t, gjson.Get(body, "verified").Bool())
	assert.Len(t, gjson.Get(body, "feedback").Array(), 3)
}

func TestVerifyEndpointExplicitModels(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/verify",
		`{"query":"q","response":"r","models":["deepseek","openai"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, gjson.Get(w.Body.String(), "agreement_ratio").Float())
	assert.True(t, gjson.Get(w.Body.String(), "verified").Bool())
}

func TestVerifyEndpointEmptyModels(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/verify",
		`{"query":"q","response":"r","models":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEndpointMissingFields(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/verify", `{"query":"q"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsensusEndpoint(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/consensus", `{"responses":[
		{"model":"a","text":"the sky is blue","verified":true},
		{"model":"b","text":"the sky is blue","verified":true},
		{"model":"c","text":"the sky is green","verified":false}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Equal(t, "use_with_confidence", gjson.Get(body, "consensus.recommendation").String())
	assert.Len(t, gjson.Get(body, "similarities").Array(), 3)
	assert.Equal(t, 1.0, gjson.Get(body, "similarities.0.similarity").Float())
}

func TestConsensusEndpointEmpty(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/consensus", `{"responses":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"choices":[{"message":{"content":"Paris"}}]}`)
	}))
	defer upstream.Close()

	srv := newTestServer(t, &config.Config{}, upstream.URL)

	w := doRequest(srv, http.MethodPost, "/v1/chat", `{"question":"Capital of France?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", gjson.Get(w.Body.String(), "text").String())
	assert.False(t, gjson.Get(w.Body.String(), "report").Exists())
}

func TestChatEndpointNoPrimary(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/chat", `{"question":"q"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQuizEndpointBadBody(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/quiz", `{"topic":"go"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressEndpoints(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodPost, "/v1/progress/sessions",
		`{"duration_minutes":30,"topic":"goroutines"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(srv, http.MethodGet, "/v1/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "summary.total_sessions").Int())
	assert.InDelta(t, 0.5, gjson.Get(w.Body.String(), "summary.total_study_hours").Float(), 1e-9)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	doRequest(srv, http.MethodPost, "/v1/verify", `{"query":"q","response":"r"}`)

	w := doRequest(srv, http.MethodGet, "/v1/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "verification.total_verifications").Int())
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "consensus.total_analyses").Int())
}

func TestManagementLocalhostBypass(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodGet, "/api/state-box/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "initialized").Bool())
}

func TestManagementRemoteWithoutKey(t *testing.T) {
	srv := newTestServer(t, &config.Config{}, "")

	w := doRequest(srv, http.MethodGet, "/api/state-box/status", "", func(r *http.Request) {
		r.RemoteAddr = "192.0.2.7:40000"
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestManagementRemoteWithKey(t *testing.T) {
	srv := newTestServer(t, &config.Config{ManagementKey: "s3cret"}, "")

	w := doRequest(srv, http.MethodGet, "/api/state-box/status", "", func(r *http.Request) {
		r.RemoteAddr = "192.0.2.7:40000"
		r.Header.Set("X-Management-Key", "s3cret")
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(srv, http.MethodGet, "/api/state-box/status", "", func(r *http.Request) {
		r.RemoteAddr = "192.0.2.7:40000"
		r.Header.Set("X-Management-Key", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestManagementKeyRotation(t *testing.T) {
	srv := newTestServer(t, &config.Config{ManagementKey: "old-key"}, "")

	remote := func(key string) *httptest.ResponseRecorder {
		return doRequest(srv, http.MethodGet, "/api/state-box/status", "", func(r *http.Request) {
			r.RemoteAddr = "192.0.2.7:40000"
			r.Header.Set("X-Management-Key", key)
		})
	}

	assert.Equal(t, http.StatusOK, remote("old-key").Code)

	next := *srv.Config()
	next.ManagementKey = "new-key"
	srv.UpdateConfig(&next)

	assert.Equal(t, http.StatusUnauthorized, remote("old-key").Code)
	assert.Equal(t, http.StatusOK, remote("new-key").Code)
}

func TestManagementKeyRotationUnderLoad(t *testing.T) {
	srv := newTestServer(t, &config.Config{ManagementKey: "key-0"}, "")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			next := *srv.Config()
			next.ManagementKey = fmt.Sprintf("key-%d", i%2)
			next.Debug = i%2 == 0
			srv.UpdateConfig(&next)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			w := doRequest(srv, http.MethodGet, "/api/state-box/status", "", func(r *http.Request) {
				r.RemoteAddr = "192.0.2.7:40000"
				r.Header.Set("X-Management-Key", fmt.Sprintf("key-%d", i%2))
			})
			// The key either matches the current snapshot or a stale
			// one; both outcomes are well-defined.
			assert.Contains(t, []int{http.StatusOK, http.StatusUnauthorized}, w.Code)
		}
	}()

	wg.Wait()
}

func TestManagementConfigRedactsSecrets(t *testing.T) {
	cfg := &config.Config{
		ManagementKey: "s3cret",
		Providers: []config.Provider{
			{Name: "deepseek", APIKey: "sk-secret", Model: "deepseek-chat"},
		},
	}
	srv := newTestServer(t, cfg, "")

	w := doRequest(srv, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-secret")
	assert.NotContains(t, w.Body.String(), "s3cret")
	assert.Contains(t, w.Body.String(), "deepseek-chat")
}
