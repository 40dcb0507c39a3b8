package flow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON pulls the JSON object out of a model response that may be
// wrapped in prose or code fences: everything from the first '{' to the
// last '}'.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

// decodeJSON parses a model response into the expected schema. Every
// failure mode (no JSON present, malformed JSON) is reported the same way
// so stages map it uniformly to a json_parse_error flag.
func decodeJSON(response string, v interface{}) error {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(jsonContent), v); err != nil {
		return fmt.Errorf("JSON unmarshal failed: %w", err)
	}
	return nil
}

// truncate shortens s to max runes, appending an ellipsis when cut
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
