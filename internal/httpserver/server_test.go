package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moona3k/website-to-voice-agent/internal/config"
)

func TestServer_Healthz(t *testing.T) {
	srv := New(config.Config{})
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_SessionRoutesWired(t *testing.T) {
	srv := New(config.Config{})
	r := httptest.NewRequest(http.MethodPost, "/start-session", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "session_id") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if srv.Store.Len() != 1 {
		t.Fatalf("session not registered in store")
	}
}

func TestServer_TwilioRouteOnlyWithToken(t *testing.T) {
	srv := New(config.Config{})
	r := httptest.NewRequest(http.MethodPost, "/twilio/voice", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Fatalf("webhook must be absent without token, got %d", w.Code)
	}

	srv = New(config.Config{TwilioAuthToken: "token"})
	w = httptest.NewRecorder()
	srv.Router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/twilio/voice", nil))
	if w.Code == http.StatusNotFound {
		t.Fatalf("webhook must be registered with token")
	}
}
