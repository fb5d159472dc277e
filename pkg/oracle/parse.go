package oracle

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tygershark/shiprecon/internal/resilience"
)

// Decode unmarshals an oracle answer into out, tolerating markdown fences and
// surrounding prose. Failures are resilience.MalformedError: the oracle
// answered, just not in the requested shape, so retrying is pointless.
func Decode(text string, out any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" {
		return resilience.NewMalformedError(eris.New("oracle: empty response"))
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return resilience.NewMalformedError(eris.Wrap(err, "oracle: decode response"))
	}
	return nil
}

// CleanJSON strips markdown code fences and leading/trailing prose around a
// JSON object or array.
func CleanJSON(text string) string {
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

	// Keep from the first opening brace/bracket to its matching closer.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			text = text[arrStart : end+1]
		}
	} else if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			text = text[objStart : end+1]
		}
	}

	return strings.TrimSpace(text)
}
