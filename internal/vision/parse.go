package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnparseable = errors.New("classifier reply is not valid analysis JSON")

// Analysis is the classifier's raw judgement of one photo, before any
// normalization into report fields.
type Analysis struct {
	WasteType  string  `json:"wasteType"`
	Confidence float64 `json:"confidence"`
	Amount     string  `json:"amount"`
	Points     int     `json:"points"`
}

// ParseAnalysis strips markdown fences and decodes the reply. wasteType and
// amount must be present.
func ParseAnalysis(reply string) (Analysis, error) {
	var a Analysis
	content := cleanJSONContent(reply)
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if strings.TrimSpace(a.WasteType) == "" || strings.TrimSpace(a.Amount) == "" {
		return Analysis{}, fmt.Errorf("%w: missing wasteType or amount", ErrUnparseable)
	}
	return a, nil
}

// ParseVerdict is true only for the single token "true", ignoring case and
// surrounding whitespace. Anything else, including an empty or quoted reply,
// is a mismatch.
func ParseVerdict(reply string) bool {
	return strings.ToLower(strings.TrimSpace(reply)) == "true"
}

// cleanJSONContent removes ``` fences and falls back to the outermost {...}
// when the model wraps the object in prose.
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))

	if !strings.HasPrefix(content, "{") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			content = content[start : end+1]
		}
	}
	return content
}
