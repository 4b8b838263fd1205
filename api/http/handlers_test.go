package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/config"
	"github.com/moona3k/website-to-voice-agent/internal/lead"
	"github.com/moona3k/website-to-voice-agent/internal/session"
)

type fakeResearcher struct {
	cfg business.Config
	err error
}

func (f *fakeResearcher) Research(_ context.Context, url string) (business.Config, error) {
	if f.err != nil {
		return business.Config{}, f.err
	}
	cfg := f.cfg
	cfg.WebsiteURL = url
	return cfg, nil
}

type fakeQualifier struct{}

func (fakeQualifier) Analyze(_ context.Context, _ string, _ business.Config) lead.Analysis {
	return lead.Analysis{Status: lead.StatusWarm}
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []lead.Record
}

func (f *fakeRecorder) Append(_ context.Context, rec lead.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

type apiFixture struct {
	e        *echo.Echo
	store    *session.Store
	research *fakeResearcher
	recorder *fakeRecorder
}

func newAPIFixture() *apiFixture {
	f := &apiFixture{
		e:        echo.New(),
		store:    session.NewStore(0),
		research: &fakeResearcher{cfg: business.Config{BrandName: "Acme", Tone: "warm"}},
		recorder: &fakeRecorder{},
	}
	h := Handlers{
		Cfg:        config.Config{TTSProvider: "openai"},
		Store:      f.store,
		Researcher: f.research,
		Qualifier:  fakeQualifier{},
		Recorder:   f.recorder,
	}
	h.Register(f.e)
	return f
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestStartSession(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(http.MethodPost, "/start-session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["session_id"] == "" {
		t.Fatalf("no session id in %s", rec.Body.String())
	}
	if _, err := f.store.Get(resp["session_id"]); err != nil {
		t.Fatalf("session not registered: %v", err)
	}
}

func TestConfigureAgent(t *testing.T) {
	f := newAPIFixture()
	sess := f.store.Create()

	rec := f.do(http.MethodPost, "/configure-agent",
		`{"session_id":"`+sess.ID+`","config":{"brandName":"Acme","websiteUrl":"acme.example"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got, _ := f.store.Get(sess.ID)
	if !got.Configured || got.Config.BrandName != "Acme" {
		t.Fatalf("config not applied: %+v", got)
	}

	if rec := f.do(http.MethodPost, "/configure-agent", `{"session_id":"missing","config":{}}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: status = %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/configure-agent", `{"config":{}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing session_id: status = %d", rec.Code)
	}
}

func TestAnalyzeCompany(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(http.MethodPost, "/analyze-company", `{"website_url":"https://acme.example"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var cfg business.Config
	_ = json.Unmarshal(rec.Body.Bytes(), &cfg)
	if cfg.BrandName != "Acme" || cfg.WebsiteURL != "https://acme.example" {
		t.Fatalf("unexpected profile: %+v", cfg)
	}

	if rec := f.do(http.MethodPost, "/analyze-company", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url: status = %d", rec.Code)
	}
}

func TestAnalyzeCompany_ResearchFailureFallsBack(t *testing.T) {
	f := newAPIFixture()
	f.research.err = errors.New("web search down")
	rec := f.do(http.MethodPost, "/analyze-company", `{"website_url":"https://down.example"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var cfg business.Config
	_ = json.Unmarshal(rec.Body.Bytes(), &cfg)
	if cfg.BrandName != business.Defaults().BrandName {
		t.Fatalf("expected default profile, got %+v", cfg)
	}
	if cfg.WebsiteURL != "https://down.example" {
		t.Fatalf("fallback must keep the requested url, got %q", cfg.WebsiteURL)
	}
}

func TestConnect(t *testing.T) {
	f := newAPIFixture()
	sess := f.store.Create()

	rec := f.do(http.MethodPost, "/connect", `{"session_id":"`+sess.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.HasSuffix(resp["ws_url"], "/ws/"+sess.ID) {
		t.Fatalf("ws_url = %q", resp["ws_url"])
	}
	if !strings.HasPrefix(resp["ws_url"], "ws://") && !strings.HasPrefix(resp["ws_url"], "wss://") {
		t.Fatalf("ws_url scheme: %q", resp["ws_url"])
	}

	// No session id: one is created on the fly.
	rec = f.do(http.MethodPost, "/connect", `{}`)
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["session_id"] == "" {
		t.Fatalf("expected implicit session, got %s", rec.Body.String())
	}

	if rec := f.do(http.MethodPost, "/connect", `{"session_id":"missing"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: status = %d", rec.Code)
	}
}

func TestGetLeadData(t *testing.T) {
	f := newAPIFixture()
	sess := f.store.Create()

	rec := f.do(http.MethodGet, "/get-lead-data/"+sess.ID, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pending") {
		t.Fatalf("pending lead: status=%d body=%s", rec.Code, rec.Body.String())
	}

	_ = f.store.RecordLead(sess.ID, lead.Record{SessionID: sess.ID, Status: lead.StatusHot})
	rec = f.do(http.MethodGet, "/get-lead-data/"+sess.ID, "")
	var resp struct {
		Status   string      `json:"status"`
		LeadData lead.Record `json:"lead_data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "completed" || resp.LeadData.Status != lead.StatusHot {
		t.Fatalf("completed lead: %s", rec.Body.String())
	}

	if rec := f.do(http.MethodGet, "/get-lead-data/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture()
	if rec := f.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	f := newAPIFixture()
	rec := f.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus exposition output")
	}
}

func TestCallWebSocket_UnknownSessionClosedWithPolicyViolation(t *testing.T) {
	f := newAPIFixture()
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/unknown"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected 1008 close, got %v", err)
	}
}

func TestCallWebSocket_DisconnectStoresLead(t *testing.T) {
	f := newAPIFixture()
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	sess := f.store.Create()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sess.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bye"}`))
	_ = conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := f.store.Get(sess.ID); got.Lead != nil {
			if f.recorder.count() != 1 {
				t.Fatalf("recorder appends = %d", f.recorder.count())
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("lead never stored after disconnect")
}
