package article

import (
	"encoding/json"
	"fmt"
	"strings"

	"newsstand/internal/core"
)

// ParseError marks a failure to turn model output into a valid draft. The
// orchestrator maps it to a distinct failure code so callers can tell a
// malformed response from a transport problem.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse article response: %s", e.Reason)
}

// StripFences removes a markdown code fence wrapper (``` or ```json) from
// model output, returning the inner text unchanged when no fence is found.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence line.
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// extractJSONObject returns the first balanced top-level JSON object in s,
// tolerating prose before or after it. Braces inside strings are skipped.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// articleDocument is the wire shape of the structured article response.
type articleDocument struct {
	Title            string                `json:"title"`
	HTML             string                `json:"html"`
	ExecutiveSummary core.ExecutiveSummary `json:"executive_summary"`
	Components       []json.RawMessage     `json:"components"`
}

// parseDraft converts raw model output into a validated ArticleDraft.
// Component skip reasons are returned separately for logging; they do not
// fail the parse.
func parseDraft(raw string) (*core.ArticleDraft, []string, error) {
	cleaned := StripFences(raw)
	jsonText, ok := extractJSONObject(cleaned)
	if !ok {
		return nil, nil, &ParseError{Reason: "no JSON object found in response", Raw: raw}
	}

	var doc articleDocument
	if err := json.Unmarshal([]byte(jsonText), &doc); err != nil {
		return nil, nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}

	if doc.Title == "" {
		return nil, nil, &ParseError{Reason: "missing required field: title", Raw: raw}
	}
	if doc.HTML == "" {
		return nil, nil, &ParseError{Reason: "missing required field: html", Raw: raw}
	}
	if doc.ExecutiveSummary.Intro == "" && len(doc.ExecutiveSummary.KeyStats) == 0 {
		return nil, nil, &ParseError{Reason: "missing required field: executive_summary", Raw: raw}
	}

	if err := checkSemanticOnly(doc.HTML); err != nil {
		return nil, nil, &ParseError{Reason: err.Error(), Raw: raw}
	}

	components, skipped := core.DecodeComponents(doc.Components)

	return &core.ArticleDraft{
		Title:            doc.Title,
		HTML:             doc.HTML,
		ExecutiveSummary: doc.ExecutiveSummary,
		Components:       components,
	}, skipped, nil
}

// checkSemanticOnly rejects drafts that smuggle presentation into the body.
// Styling belongs exclusively to the layout stage.
func checkSemanticOnly(html string) error {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "<style") {
		return fmt.Errorf("article html contains a <style> block; body must be semantic markup only")
	}
	if strings.Contains(lower, "class=") {
		return fmt.Errorf("article html contains class attributes; body must be semantic markup only")
	}
	return nil
}
