// Package sanitize repairs the text a generative model wraps around JSON so a
// standard parser can consume it. It is purely structural: fences and braces,
// never field semantics.
package sanitize

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmpty signals an empty or whitespace-only model response.
var ErrEmpty = errors.New("empty response from model")

var (
	fenceOpen  = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	fenceClose = regexp.MustCompile("\n?[ \t]*```$")
	// a quoted key at the start of the text, e.g. `"name": ...`
	leadingKey = regexp.MustCompile(`^"[A-Za-z_][A-Za-z0-9_]*"\s*:`)
)

// Clean strips markdown code fences and stray backticks from raw and repairs a
// missing leading or trailing brace. It returns ErrEmpty for blank input. The
// result is not parsed or validated here; that is the caller's job.
func Clean(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrEmpty
	}

	content = fenceOpen.ReplaceAllString(content, "")
	content = fenceClose.ReplaceAllString(content, "")
	content = strings.TrimSpace(strings.Trim(strings.TrimSpace(content), "`"))
	if content == "" {
		return "", ErrEmpty
	}

	if !strings.HasPrefix(content, "{") && leadingKey.MatchString(content) {
		content = "{" + content
	}
	if strings.HasPrefix(content, "{") && !strings.HasSuffix(content, "}") {
		content = content + "}"
	}
	return content, nil
}
