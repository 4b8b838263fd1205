package sanitize

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestClean_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t ", "```\n```"} {
		if _, err := Clean(in); !errors.Is(err, ErrEmpty) {
			t.Fatalf("Clean(%q): expected ErrEmpty, got %v", in, err)
		}
	}
}

func TestClean_StripsFences(t *testing.T) {
	want := map[string]any{"name": "John", "qualification_status": "🔥 Hot"}
	wrapped := []string{
		"```json\n{\"name\": \"John\", \"qualification_status\": \"🔥 Hot\"}\n```",
		"```\n{\"name\": \"John\", \"qualification_status\": \"🔥 Hot\"}\n```",
		"`{\"name\": \"John\", \"qualification_status\": \"🔥 Hot\"}`",
		"  {\"name\": \"John\", \"qualification_status\": \"🔥 Hot\"}  ",
	}
	for _, in := range wrapped {
		out, err := Clean(in)
		if err != nil {
			t.Fatalf("Clean(%q): %v", in, err)
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("Clean(%q) produced unparsable JSON %q: %v", in, out, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Clean(%q) = %q, parsed %v, want %v", in, out, got, want)
		}
	}
}

func TestClean_RepairsMissingLeadingBrace(t *testing.T) {
	out, err := Clean(`"name": "X"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"name": "X"}` {
		t.Fatalf("got %q, want %q", out, `{"name": "X"}`)
	}
}

func TestClean_RepairsMissingTrailingBrace(t *testing.T) {
	out, err := Clean(`{"name": "X"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"name": "X"}` {
		t.Fatalf("got %q, want %q", out, `{"name": "X"}`)
	}
}

func TestClean_RepairsBothBraces(t *testing.T) {
	out, err := Clean("```json\n\"name\": \"X\", \"email\": null\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("repaired output %q not parsable: %v", out, err)
	}
	if got["name"] != "X" {
		t.Fatalf("unexpected parse result: %v", got)
	}
}

func TestClean_LeavesNonObjectTextAlone(t *testing.T) {
	// No brace repair when the text has no recognizable field marker.
	out, err := Clean("I could not produce JSON, sorry.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "I could not produce JSON, sorry." {
		t.Fatalf("unexpected mutation of plain text: %q", out)
	}
}
