package lead

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/prompt"
	"github.com/moona3k/website-to-voice-agent/internal/sanitize"
)

// Completer is the single-shot text generation call the analyzer depends on.
type Completer interface {
	Complete(ctx context.Context, p string, maxTokens int, temperature float64) (string, error)
}

const (
	analysisMaxTokens   = 500
	analysisTemperature = 0.1
)

// Analyzer turns a finished transcript into an Analysis via one bounded,
// low-randomness model call.
type Analyzer struct {
	llm Completer
}

func NewAnalyzer(llm Completer) *Analyzer {
	return &Analyzer{llm: llm}
}

// Analyze runs the qualification pass. It never returns an error: any failure
// (model error, empty response, unparsable JSON) degrades to FallbackAnalysis
// so the call teardown path cannot be blocked or crashed by qualification.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, cfg business.Config) Analysis {
	p := prompt.BuildQualificationPrompt(transcript, cfg)
	raw, err := a.llm.Complete(ctx, p, analysisMaxTokens, analysisTemperature)
	if err != nil {
		log.Printf("lead analysis: model call failed: %v", err)
		return FallbackAnalysis()
	}

	cleaned, err := sanitize.Clean(raw)
	if err != nil {
		log.Printf("lead analysis: %v", err)
		return FallbackAnalysis()
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		log.Printf("lead analysis: unparsable model output: %v", err)
		return FallbackAnalysis()
	}
	return payload.toAnalysis()
}

// analysisPayload tolerates the shapes the model actually produces: list-typed
// pain_points/next_steps, null contact fields, decorated status strings.
type analysisPayload struct {
	Name       *string         `json:"name"`
	Email      *string         `json:"email"`
	Phone      *string         `json:"phone"`
	Status     string          `json:"qualification_status"`
	Reason     string          `json:"qualification_reason"`
	PainPoints json.RawMessage `json:"pain_points"`
	Summary    string          `json:"summary"`
	NextSteps  json.RawMessage `json:"next_steps"`
}

func (p analysisPayload) toAnalysis() Analysis {
	summary := p.Summary
	if summary == "" {
		summary = "No summary available"
	}
	return Analysis{
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Status:     NormalizeStatus(p.Status),
		Reason:     p.Reason,
		PainPoints: flatten(p.PainPoints, "None identified"),
		Summary:    summary,
		NextSteps:  flatten(p.NextSteps, "Follow up required"),
	}
}

// flatten renders a raw JSON value as one delimited string: strings pass
// through, arrays join with "; ", null or absent falls back to def.
func flatten(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return def
		}
		return s
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok && str != "" {
				parts = append(parts, str)
			}
		}
		if len(parts) == 0 {
			return def
		}
		return strings.Join(parts, "; ")
	}
	return def
}
