package dialogue

import (
	"encoding/json"
	"strings"
)

// maxRepairDepth bounds the recursive recovery below. Five layers is enough
// to peel markdown fences and doubled braces off any response we have seen;
// deeper nesting is garbage, not JSON.
const maxRepairDepth = 5

// extractObject recovers a JSON object from raw model output. Generative
// services routinely wrap the payload in prose, code fences, or stray braces.
// Returns nil when no object can be recovered within the depth bound; it
// never panics and always terminates.
func extractObject(raw string) json.RawMessage {
	return repair(strings.TrimSpace(raw), 0)
}

func repair(raw string, depth int) json.RawMessage {
	if depth > maxRepairDepth {
		return nil
	}
	if isObject(raw) {
		return json.RawMessage(raw)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	// Braces bounding the whole string mean the wrapper itself is broken:
	// peel one layer and retry.
	if start == 0 && end == len(raw)-1 {
		return repair(strings.TrimSpace(raw[1:end]), depth+1)
	}

	sub := raw[start : end+1]
	if isObject(sub) {
		return json.RawMessage(sub)
	}
	if r := repair(raw[start:], depth+1); r != nil {
		return r
	}
	return repair(raw[:end+1], depth+1)
}

// isObject reports whether s parses as a JSON object.
func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var m map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &m) == nil
}
