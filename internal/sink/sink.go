// Package sink persists finished lead records to external destinations:
// a Google Sheets spreadsheet, a Supabase table, or the process log.
package sink

import (
	"strings"

	"github.com/moona3k/website-to-voice-agent/internal/lead"
)

// headerRow is the first row written to every per-website worksheet.
var headerRow = []interface{}{
	"Session ID", "Start Time", "End Time", "Duration", "Website URL",
	"Lead Name", "Email", "Phone", "Qualification Status",
	"Qualification Reason", "Pain Points", "Summary", "Next Steps",
	"Conversation Log",
}

// maxWorksheetName is the sheet-title length Google accepts comfortably.
const maxWorksheetName = 50

// WorksheetName derives a valid worksheet title from a website URL: scheme
// and www. stripped, path dropped, then only letters, digits, dots and
// hyphens survive; everything else becomes an underscore. Capped at 50 runes.
func WorksheetName(websiteURL string) string {
	name := strings.TrimSpace(websiteURL)
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "www.")
	if i := strings.IndexAny(name, "/?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-':
			return r
		}
		return '_'
	}, name)
	if runes := []rune(name); len(runes) > maxWorksheetName {
		name = string(runes[:maxWorksheetName])
	}
	if name == "" {
		return "Unknown Website"
	}
	return name
}

// recordRow renders a lead record in header order. Nil contact fields come
// out as empty cells.
func recordRow(rec lead.Record) []interface{} {
	return []interface{}{
		rec.SessionID,
		rec.StartTime,
		rec.EndTime,
		rec.Duration,
		rec.WebsiteURL,
		deref(rec.Name),
		deref(rec.Email),
		deref(rec.Phone),
		string(rec.Status),
		rec.Reason,
		rec.PainPoints,
		rec.Summary,
		rec.NextSteps,
		rec.Transcript,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
