// internal/llm/extract.go
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON decodes the JSON object a model was asked to produce into v.
// Models routinely wrap output in code fences, truncate braces, or prepend
// prose, so the decode runs as a fallback chain: strict parse of the
// fence-stripped reply, jsonrepair of it, then the same two attempts on the
// outermost {...} slice of the reply. The first strict-parse error is
// reported when every attempt fails.
func ExtractJSON(reply string, v interface{}) error {
	cleaned := stripFences(reply)

	candidates := []string{cleaned}
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		if slice := cleaned[start : end+1]; slice != cleaned {
			candidates = append(candidates, slice)
		}
	}

	var firstErr error
	for _, candidate := range candidates {
		err := json.Unmarshal([]byte(candidate), v)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}

		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			continue
		}
		if json.Unmarshal([]byte(repaired), v) == nil {
			return nil
		}
	}

	if firstErr == nil {
		firstErr = fmt.Errorf("reply contains no JSON object")
	}
	return fmt.Errorf("failed to extract JSON from model reply: %w", firstErr)
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
