package enrich

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ParseContactJSON pulls a single JSON object out of potentially noisy model
// output (markdown fences, prose before or after), parses it, and applies
// the field cleaning rules. The first balanced {...} span is used; if no
// such span parses, the whole result is rejected.
func ParseContactJSON(text string) (model.ContactFields, error) {
	span := jsonSpan(stripFences(text))
	if span == "" {
		return nil, eris.New("enrich: no JSON object in extraction output")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, eris.Wrap(err, "enrich: parse extraction JSON")
	}

	flat := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			flat[strings.ToLower(k)] = val
		case float64:
			flat[strings.ToLower(k)] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}

	return CleanFields(flat), nil
}

// stripFences removes a leading markdown code fence (``` or ```json) and its
// closing fence, if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	return strings.TrimSpace(text)
}

// jsonSpan returns the first balanced {...} span in text, tracking string
// literals and escapes so braces inside values don't miscount. Returns ""
// when no balanced span exists.
func jsonSpan(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
