package aigateway

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
)

// ExtractJSON returns the first balanced {...} object in text, skipping braces
// inside string literals. Trailing commas before } or ] are removed.
func ExtractJSON(text string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if start < 0 {
			if ch == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return cleanJSON(text[start : i+1])
			}
		}
	}
	return ""
}

// cleanJSON drops commas that directly precede } or ], ignoring whitespace.
// Commas inside string literals are kept.
func cleanJSON(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == ',' && closesNext(raw[i+1:]):
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func closesNext(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	return rest != "" && (rest[0] == '}' || rest[0] == ']')
}

// DecodeJSON extracts the first JSON object from text into out and returns
// the extracted bytes.
func DecodeJSON(text string, out any) ([]byte, error) {
	obj := ExtractJSON(text)
	if obj == "" {
		return nil, apierr.E(apierr.MalformedAIResponse, "aigateway.DecodeJSON", errors.New("no JSON object in AI reply"))
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return nil, apierr.E(apierr.MalformedAIResponse, "aigateway.DecodeJSON", err)
	}
	return []byte(obj), nil
}
