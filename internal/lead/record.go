// Package lead defines the structured sales-lead record produced at call end
// and the analyzer that extracts it from a conversation transcript.
package lead

import (
	"strings"
	"unicode"
)

// Status is the qualification tier of a completed call.
type Status string

// The three canonical tiers, plus the sentinel used whenever analysis cannot
// produce a valid tier. Nothing else is ever stored on a record.
const (
	StatusHot     Status = "hot"
	StatusWarm    Status = "warm"
	StatusCold    Status = "cold"
	StatusUnknown Status = "unknown"
)

// NormalizeStatus maps raw model output onto a canonical Status. The model is
// prompted to answer with emoji-tagged tiers ("🔥 Hot", "🟠 Warm", "❄️ Cold"),
// so everything but the letters is ignored; a token that is not exactly one
// tier name maps to StatusUnknown.
func NormalizeStatus(raw string) Status {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	switch b.String() {
	case "hot":
		return StatusHot
	case "warm":
		return StatusWarm
	case "cold":
		return StatusCold
	}
	return StatusUnknown
}

// Analysis is the qualification output extracted from one transcript.
// Contact fields are nil when the caller never stated them.
type Analysis struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Status     Status  `json:"qualification_status"`
	Reason     string  `json:"qualification_reason"`
	PainPoints string  `json:"pain_points"`
	Summary    string  `json:"summary"`
	NextSteps  string  `json:"next_steps"`
}

// FallbackAnalysis is the inert record body returned when qualification fails
// at any step. Callers never see an error from the analyzer.
func FallbackAnalysis() Analysis {
	return Analysis{
		Status:     StatusUnknown,
		Reason:     "Analysis failed",
		PainPoints: "Analysis failed",
		Summary:    "Analysis failed - manual review required",
		NextSteps:  "Manual review required",
	}
}

// Record is the full, immutable lead record for one completed call: the
// Analysis merged with call metadata and the frozen transcript.
type Record struct {
	SessionID  string  `json:"session_id"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Duration   string  `json:"duration"`
	WebsiteURL string  `json:"website_url"`
	Name       *string `json:"lead_name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Status     Status  `json:"qualification_status"`
	Reason     string  `json:"qualification_reason"`
	PainPoints string  `json:"pain_points"`
	Summary    string  `json:"summary"`
	NextSteps  string  `json:"next_steps"`
	Transcript string  `json:"conversation_log"`
}
