package tts

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

func openAIFor(srv *httptest.Server) *OpenAIClient {
	c := NewOpenAIClient("key", "", "")
	c.HTTPClient = &http.Client{Timeout: time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
	return c
}

func drain(t *testing.T, pcmCh <-chan []byte, errCh <-chan error) ([]byte, error) {
	t.Helper()
	var out []byte
	var streamErr error
	for pcmCh != nil || errCh != nil {
		select {
		case b, ok := <-pcmCh:
			if !ok {
				pcmCh = nil
				continue
			}
			out = append(out, b...)
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			streamErr = err
		case <-time.After(2 * time.Second):
			t.Fatalf("stream never finished")
		}
	}
	return out, streamErr
}

func TestOpenAI_StreamPCM(t *testing.T) {
	var gotReq speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write(make([]byte, 10000))
	}))
	defer srv.Close()

	pcmCh, errCh := openAIFor(srv).StreamPCM(context.Background(), "hello caller")
	out, err := drain(t, pcmCh, errCh)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(out) != 10000 {
		t.Fatalf("expected 10000 bytes, got %d", len(out))
	}
	if gotReq.ResponseFormat != "pcm" {
		t.Fatalf("response_format = %q", gotReq.ResponseFormat)
	}
	if gotReq.Model != "tts-1" || gotReq.Voice != "alloy" {
		t.Fatalf("defaults not applied: %+v", gotReq)
	}
	if gotReq.Input != "hello caller" {
		t.Fatalf("input = %q", gotReq.Input)
	}
}

func TestOpenAI_StreamPCM_NoKey(t *testing.T) {
	c := NewOpenAIClient("", "", "")
	pcmCh, errCh := c.StreamPCM(context.Background(), "hello")
	if _, err := drain(t, pcmCh, errCh); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestOpenAI_StreamPCM_EmptyTextIsNoop(t *testing.T) {
	c := NewOpenAIClient("key", "", "")
	pcmCh, errCh := c.StreamPCM(context.Background(), "")
	out, err := drain(t, pcmCh, errCh)
	if err != nil || len(out) != 0 {
		t.Fatalf("empty text should produce nothing, got %d bytes err=%v", len(out), err)
	}
}

func TestOpenAI_StreamPCM_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	pcmCh, errCh := openAIFor(srv).StreamPCM(context.Background(), "hello")
	if _, err := drain(t, pcmCh, errCh); err == nil {
		t.Fatalf("expected error on 429")
	}
}
