package broker

import (
	"encoding/json"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips all HTML elements and attributes.
var strict = bluemonday.StrictPolicy()

// sanitizePayload runs every string in the payload through the strict
// policy so injected markup cannot round-trip to other clients. Payloads
// that are not valid JSON values pass through untouched; the router has
// already validated the envelope at this point.
func sanitizePayload(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return raw
	}

	cleaned, err := json.Marshal(sanitizeValue(value))
	if err != nil {
		return raw
	}
	return cleaned
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return strict.Sanitize(t)
	case map[string]any:
		for k, item := range t {
			t[k] = sanitizeValue(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = sanitizeValue(item)
		}
		return t
	default:
		return v
	}
}
