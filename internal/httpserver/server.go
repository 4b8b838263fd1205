// Package httpserver assembles the service: session store, research and
// qualification clients, lead sinks, and the HTTP routes on top of them.
package httpserver

import (
	"context"
	"log"
	"net/http"
	"os"

	apihttp "github.com/moona3k/website-to-voice-agent/api/http"
	"github.com/moona3k/website-to-voice-agent/internal/agent"
	"github.com/moona3k/website-to-voice-agent/internal/config"
	"github.com/moona3k/website-to-voice-agent/internal/lead"
	"github.com/moona3k/website-to-voice-agent/internal/llm"
	"github.com/moona3k/website-to-voice-agent/internal/research"
	"github.com/moona3k/website-to-voice-agent/internal/session"
	"github.com/moona3k/website-to-voice-agent/internal/sink"
	"github.com/moona3k/website-to-voice-agent/internal/telephony"
)

// Server bundles the HTTP router and the state it serves.
type Server struct {
	Router http.Handler
	Store  *session.Store
}

// New constructs the fully wired HTTP server.
func New(cfg config.Config) *Server {
	e := newRouter()

	store := session.NewStore(cfg.SessionTTL)
	qualifier := lead.NewAnalyzer(llm.NewOpenAIClient(cfg.OpenAIKey, cfg.ChatModelID))

	h := apihttp.Handlers{
		Cfg:        cfg,
		Store:      store,
		Researcher: research.NewClient(cfg.OpenAIKey, cfg.ResearchModelID),
		Qualifier:  qualifier,
		Recorder:   buildRecorder(cfg),
	}
	h.Register(e)

	if cfg.TwilioAuthToken != "" {
		telephony.New(telephony.Config{AuthToken: cfg.TwilioAuthToken, BaseURL: cfg.BaseURL}, store).RegisterHandlers(e)
	}

	return &Server{Router: e, Store: store}
}

// buildRecorder assembles the lead persistence chain from whatever sinks are
// configured. With none, leads still land in the process log.
func buildRecorder(cfg config.Config) agent.Recorder {
	var sinks []agent.Recorder

	if cfg.SheetsCredentialsFile != "" && cfg.SheetsSpreadsheetID != "" {
		creds, err := os.ReadFile(cfg.SheetsCredentialsFile)
		if err != nil {
			log.Printf("sheets: read credentials: %v", err)
		} else if rec, err := sink.NewSheetsRecorder(context.Background(), creds, cfg.SheetsSpreadsheetID); err != nil {
			log.Printf("sheets: %v", err)
		} else {
			sinks = append(sinks, rec)
		}
	}

	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		rec, err := sink.NewSupabaseRecorder(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseTable)
		if err != nil {
			log.Printf("supabase: %v", err)
		} else {
			sinks = append(sinks, rec)
		}
	}

	switch len(sinks) {
	case 0:
		return sink.LogRecorder{}
	case 1:
		return sinks[0]
	default:
		return sink.NewMulti(sinks...)
	}
}
