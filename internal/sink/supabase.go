package sink

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/moona3k/website-to-voice-agent/internal/lead"
)

// SupabaseRecorder inserts one row per lead into a Supabase table. Column
// names follow the record's JSON tags.
type SupabaseRecorder struct {
	client *supabase.Client
	table  string
}

func NewSupabaseRecorder(url, serviceKey, table string) (*SupabaseRecorder, error) {
	if url == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase: url and service key required")
	}
	if table == "" {
		table = "leads"
	}
	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase: create client: %w", err)
	}
	return &SupabaseRecorder{client: client, table: table}, nil
}

func (s *SupabaseRecorder) Append(_ context.Context, rec lead.Record) error {
	if _, _, err := s.client.From(s.table).Insert(rec, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase: insert lead: %w", err)
	}
	return nil
}
