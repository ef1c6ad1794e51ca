package audit

import (
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/masking"
)

// sanitizePayload scrubs recognized secret patterns (API-key prefixes, long
// opaque tokens) and Authorization-style headers from a payload before it is
// written to the log, recursing into nested maps and slices.
func sanitizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if isAuthHeaderKey(k) {
			out[k] = "[MASKED_AUTH_HEADER]"
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return masking.RedactText(val)
	case map[string]any:
		return sanitizePayload(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = sanitizeValue(item)
		}
		return result
	default:
		return v
	}
}

func isAuthHeaderKey(key string) bool {
	return strings.EqualFold(key, "authorization") ||
		strings.EqualFold(key, "auth") ||
		strings.EqualFold(key, "x-api-key")
}
