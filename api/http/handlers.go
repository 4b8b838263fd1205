// Package http is the service's REST and websocket surface.
package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moona3k/website-to-voice-agent/internal/agent"
	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/config"
	"github.com/moona3k/website-to-voice-agent/internal/llm"
	"github.com/moona3k/website-to-voice-agent/internal/session"
	"github.com/moona3k/website-to-voice-agent/internal/transcript"
	"github.com/moona3k/website-to-voice-agent/internal/transport"
	"github.com/moona3k/website-to-voice-agent/internal/tts"
)

// Researcher turns a website URL into a business profile.
type Researcher interface {
	Research(ctx context.Context, url string) (business.Config, error)
}

type Handlers struct {
	Cfg        config.Config
	Store      *session.Store
	Researcher Researcher
	Qualifier  agent.Qualifier
	Recorder   agent.Recorder
}

func (h Handlers) Register(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/start-session", h.startSession)
	e.POST("/configure-agent", h.configureAgent)
	e.POST("/analyze-company", h.analyzeCompany)
	e.POST("/connect", h.connect)
	e.GET("/get-lead-data/:session_id", h.getLeadData)
	e.GET("/ws/:session_id", h.callWebSocket)
}

func (h Handlers) startSession(c echo.Context) error {
	sess := h.Store.Create()
	return c.JSON(http.StatusOK, map[string]string{"session_id": sess.ID})
}

type configureRequest struct {
	SessionID string          `json:"session_id"`
	Config    business.Config `json:"config"`
}

func (h Handlers) configureAgent(c echo.Context) error {
	var req configureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id required"})
	}
	if err := h.Store.Configure(req.SessionID, req.Config); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "configured",
		"session_id": req.SessionID,
	})
}

type analyzeRequest struct {
	WebsiteURL string `json:"website_url"`
}

// analyzeCompany researches a website and returns the extracted business
// profile. Research failures degrade to the default profile so the frontend
// always gets something usable.
func (h Handlers) analyzeCompany(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil || req.WebsiteURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "website_url required"})
	}
	cfg, err := h.Researcher.Research(c.Request().Context(), req.WebsiteURL)
	if err != nil {
		log.Printf("analyze-company %s: %v", req.WebsiteURL, err)
		cfg = business.Defaults()
		cfg.WebsiteURL = req.WebsiteURL
	}
	return c.JSON(http.StatusOK, cfg)
}

type connectRequest struct {
	SessionID string `json:"session_id"`
}

// connect hands the client its audio websocket address, creating a session
// on the fly when it did not call start-session first.
func (h Handlers) connect(c echo.Context) error {
	var req connectRequest
	_ = c.Bind(&req)
	id := req.SessionID
	if id == "" {
		id = h.Store.Create().ID
	} else if _, err := h.Store.Get(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"session_id": id,
		"ws_url":     buildWSURL(c, h.Cfg.BaseURL, "/ws/"+id),
	})
}

func (h Handlers) getLeadData(c echo.Context) error {
	sess, err := h.Store.Get(c.Param("session_id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	if sess.Lead == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "pending"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "completed",
		"lead_data": sess.Lead,
	})
}

// callWebSocket upgrades the connection and runs the call to completion. The
// handler returns only after teardown, so the lead record is already stored
// by the time the socket is gone.
func (h Handlers) callWebSocket(c echo.Context) error {
	id := c.Param("session_id")
	sess, err := h.Store.Get(id)

	conn, uerr := transport.Upgrade(c.Response(), c.Request())
	if uerr != nil {
		return nil
	}
	if err != nil {
		conn.Reject("unknown session")
		return nil
	}

	chat := llm.NewOpenAIClient(h.Cfg.OpenAIKey, h.Cfg.ChatModelID)
	call := agent.NewCall(id, sess.Config, agent.Deps{
		Transcriber: transcript.NewDeepgramService(h.Cfg.DeepgramKey, h.Cfg.DeepgramSTTModel),
		Chat:        chat,
		TTS:         h.newTTS(),
		Sink:        conn,
		Qualifier:   h.Qualifier,
		Store:       h.Store,
		Recorder:    h.Recorder,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		conn.ReadLoop(call.FeedPCM)
		call.Hangup()
	}()

	if err := call.Run(ctx); err != nil {
		log.Printf("[%s] call: %v", id, err)
	}
	conn.Close()
	return nil
}

// newTTS picks the synthesis backend per configuration; OpenAI by default.
func (h Handlers) newTTS() agent.TTS {
	if h.Cfg.TTSProvider == "deepgram" {
		return tts.NewDeepgramClient(h.Cfg.DeepgramKey, h.Cfg.TTSModelID)
	}
	return tts.NewOpenAIClient(h.Cfg.OpenAIKey, h.Cfg.TTSModelID, h.Cfg.TTSVoice)
}

// buildWSURL builds the public websocket address for the client.
// Priority: configured base URL > X-Forwarded-* headers > request Host.
func buildWSURL(c echo.Context, baseURL, path string) string {
	if baseURL == "" {
		proto := c.Request().Header.Get("X-Forwarded-Proto")
		host := c.Request().Header.Get("X-Forwarded-Host")
		if proto != "" && host != "" {
			baseURL = fmt.Sprintf("%s://%s", proto, host)
		}
	}
	if baseURL == "" {
		host := c.Request().Host
		proto := "https"
		if strings.HasPrefix(host, "localhost:") || strings.HasPrefix(host, "127.0.0.1:") {
			proto = "http"
		}
		baseURL = fmt.Sprintf("%s://%s", proto, host)
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.Replace(baseURL, "https://", "wss://", 1)
	baseURL = strings.Replace(baseURL, "http://", "ws://", 1)
	return baseURL + path
}
