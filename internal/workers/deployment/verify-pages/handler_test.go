// internal/workers/deployment/verify-pages/handler_test.go
package verifypages

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pageforge/internal/common/errors"
	"pageforge/internal/common/logger/loggertest"
	"pageforge/internal/models"
)

// Tests compress time: real deployments poll every 15s with a 240s budget,
// the same loop here runs on millisecond settings.
func fastConfig() *Config {
	return &Config{
		PollInterval: 5 * time.Millisecond,
		ProbeTimeout: 100 * time.Millisecond,
		Deadline:     300 * time.Millisecond,
	}
}

func livePage(nonce string) string {
	return fmt.Sprintf(`<html><head>%s</head><body>live</body></html>`, models.NonceMetaTag(nonce))
}

func TestHandler_Execute_ImmediateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, livePage("nonce-1"))
	}))
	defer server.Close()

	handler := NewHandler(fastConfig(), loggertest.New(t))
	output, err := handler.Execute(context.Background(), &Input{
		PagesURL: server.URL,
		Nonce:    "nonce-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.Attempts)
}

func TestHandler_Execute_BecomesLiveAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			// Connection-level flavor: the build has not produced anything.
			w.WriteHeader(http.StatusNotFound)
		case 2:
			// Reachable but stale: previous round's marker still served.
			fmt.Fprint(w, livePage("nonce-from-round-1"))
		default:
			fmt.Fprint(w, livePage("nonce-2"))
		}
	}))
	defer server.Close()

	handler := NewHandler(fastConfig(), loggertest.New(t))
	output, err := handler.Execute(context.Background(), &Input{
		PagesURL: server.URL,
		Nonce:    "nonce-2",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, output.Attempts)
}

func TestHandler_Execute_ConnectionErrorsAreNotFatal(t *testing.T) {
	var calls atomic.Int32
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// Abort the connection mid-response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		fmt.Fprint(w, livePage("n"))
	}))
	defer flaky.Close()

	handler := NewHandler(fastConfig(), loggertest.New(t))
	output, err := handler.Execute(context.Background(), &Input{
		PagesURL: flaky.URL,
		Nonce:    "n",
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, output.Attempts, 3)
}

func TestHandler_Execute_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reachable forever, marker never appears.
		fmt.Fprint(w, `<html><head></head><body>stale</body></html>`)
	}))
	defer server.Close()

	handler := NewHandler(fastConfig(), loggertest.New(t))
	_, err := handler.Execute(context.Background(), &Input{
		PagesURL: server.URL,
		Nonce:    "never-served",
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodeVerificationTimeout, se.Code)
}

func TestHandler_Execute_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head></head></html>`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	cfg := fastConfig()
	cfg.Deadline = 10 * time.Second
	handler := NewHandler(cfg, loggertest.New(t))
	_, err := handler.Execute(ctx, &Input{PagesURL: server.URL, Nonce: "n"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandler_Execute_ExactMarkerRequired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The nonce value appears in the body but not inside the marker tag.
		fmt.Fprint(w, `<html><head></head><body>nonce-3</body></html>`)
	}))
	defer server.Close()

	handler := NewHandler(fastConfig(), loggertest.New(t))
	_, err := handler.Execute(context.Background(), &Input{
		PagesURL: server.URL,
		Nonce:    "nonce-3",
	})

	require.Error(t, err)
	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodeVerificationTimeout, se.Code)
}
