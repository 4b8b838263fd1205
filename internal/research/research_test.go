package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func clientFor(srv *httptest.Server) *Client {
	c := NewClient("key", "gpt-4o")
	c.HTTPClient = &http.Client{Timeout: time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
	return c
}

func TestResearch_ExtractsProfile(t *testing.T) {
	var gotReq responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"output":[
			{"type":"web_search_call"},
			{"type":"message","content":[{"type":"output_text","text":"` + "```json\\n{\\\"brandName\\\": \\\"Acme Plumbing\\\", \\\"industry\\\": \\\"home services\\\"}\\n```" + `"}]}
		]}`))
	}))
	defer srv.Close()

	cfg, err := clientFor(srv).Research(context.Background(), "https://acme.example")
	if err != nil {
		t.Fatalf("research: %v", err)
	}
	if cfg.BrandName != "Acme Plumbing" {
		t.Fatalf("brand = %q", cfg.BrandName)
	}
	if cfg.Industry != "home services" {
		t.Fatalf("industry = %q", cfg.Industry)
	}
	if cfg.WebsiteURL != "https://acme.example" {
		t.Fatalf("website must be the requested url, got %q", cfg.WebsiteURL)
	}
	// Fields the model omitted are filled from defaults, not left blank.
	if cfg.Tone == "" {
		t.Fatalf("expected default tone")
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Type != "web_search" {
		t.Fatalf("web_search tool not requested: %+v", gotReq.Tools)
	}
}

func TestResearch_NoKey(t *testing.T) {
	c := NewClient("", "gpt-4o")
	if _, err := c.Research(context.Background(), "https://acme.example"); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestResearch_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(502); _, _ = w.Write([]byte("bad gateway")) }},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }},
		{"no_message_output", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"output":[{"type":"web_search_call"}]}`))
		}},
		{"prose_not_json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"I could not access the site."}]}]}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			if _, err := clientFor(srv).Research(context.Background(), "https://acme.example"); err == nil {
				t.Fatalf("expected error; got nil")
			}
		})
	}
}
