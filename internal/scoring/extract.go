package scoring

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when text contains no JSON object or array.
var ErrNoJSON = errors.New("no JSON document found")

// Candidate is a product as reported by the scoring and decision tasks.
type Candidate struct {
	Name                string   `json:"product_name"`
	Category            string   `json:"category,omitempty"`
	Scores              *Scores  `json:"scores,omitempty"`
	OverallScore        *float64 `json:"overall_score,omitempty"`
	ProfitMarginPercent *float64 `json:"profit_margin_percent,omitempty"`
	TrendPrediction     string   `json:"trend_longevity_prediction,omitempty"`
	IsDuplicate         *bool    `json:"is_duplicate,omitempty"`
	Strengths           []string `json:"strengths,omitempty"`
	Weaknesses          []string `json:"weaknesses,omitempty"`
}

// Score returns the reported overall score, or one computed from the
// dimension scores. ok is false when neither is present.
func (c Candidate) Score() (score float64, ok bool) {
	if c.OverallScore != nil {
		return clamp(*c.OverallScore, 0, 100), true
	}
	if c.Scores != nil {
		return Overall(*c.Scores), true
	}
	return 0, false
}

// ExtractJSON returns the first balanced JSON object or array embedded in
// text. Markdown code fences and surrounding prose are ignored.
func ExtractJSON(text string) (json.RawMessage, error) {
	return FindJSON(text, nil)
}

// FindJSON is ExtractJSON restricted to documents accept reports as usable.
// Valid JSON that accept rejects, such as a "[1]" citation in prose, is
// skipped and the scan continues. A nil accept takes the first valid document.
func FindJSON(text string, accept func(json.RawMessage) bool) (json.RawMessage, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		end := matchClose(text, start)
		if end < 0 {
			continue
		}
		candidate := json.RawMessage(text[start : end+1])
		if !json.Valid(candidate) {
			continue
		}
		if accept == nil || accept(candidate) {
			return candidate, nil
		}
	}
	return nil, ErrNoJSON
}

// matchClose finds the index closing the bracket at start, skipping over
// string literals.
func matchClose(text string, start int) int {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// ExtractProducts parses the product list from a scoring task output. Both
// {"products": [...]} and a non-empty bare array of objects are accepted.
func ExtractProducts(text string) ([]Candidate, error) {
	var list []Candidate
	_, err := FindJSON(text, func(raw json.RawMessage) bool {
		decoded, ok := decodeProducts(raw)
		if ok {
			list = decoded
		}
		return ok
	})
	if err != nil {
		return nil, err
	}

	products := make([]Candidate, 0, len(list))
	for _, c := range list {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		products = append(products, c)
	}
	return products, nil
}

func decodeProducts(raw json.RawMessage) ([]Candidate, bool) {
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		var list []Candidate
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil, false
		}
		return list, true
	}

	var wrapper struct {
		Products *[]Candidate `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Products == nil {
		return nil, false
	}
	return *wrapper.Products, true
}
