package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Criteria are the approval thresholds. Missing data passes.
type Criteria struct {
	MinScore         float64
	MinMarginPercent float64
}

var DefaultCriteria = Criteria{
	MinScore:         60,
	MinMarginPercent: 20,
}

// Verdict is the outcome of evaluating one candidate.
type Verdict struct {
	Name     string   `json:"product_name"`
	Score    float64  `json:"overall_score"`
	Approved bool     `json:"is_approved"`
	Passed   []string `json:"approval_criteria_met"`
	Failed   []string `json:"approval_criteria_failed"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Evaluate checks c against the criteria.
func (cr Criteria) Evaluate(c Candidate) Verdict {
	v := Verdict{Name: c.Name}
	check := func(name string, ok bool, reason string) {
		if ok {
			v.Passed = append(v.Passed, name)
			return
		}
		v.Failed = append(v.Failed, name)
		v.Reasons = append(v.Reasons, reason)
	}

	score, hasScore := c.Score()
	v.Score = score
	check("score", !hasScore || score >= cr.MinScore,
		fmt.Sprintf("overall score %.1f below %.1f", score, cr.MinScore))

	margin := 0.0
	if c.ProfitMarginPercent != nil {
		margin = *c.ProfitMarginPercent
	}
	check("margin", c.ProfitMarginPercent == nil || margin >= cr.MinMarginPercent,
		fmt.Sprintf("profit margin %.1f%% below %.1f%%", margin, cr.MinMarginPercent))

	check("trend", !strings.EqualFold(strings.TrimSpace(c.TrendPrediction), "dead"),
		"trend predicted dead")

	check("unique", c.IsDuplicate == nil || !*c.IsDuplicate,
		"duplicate of an existing product")

	v.Approved = len(v.Failed) == 0
	return v
}

// Decision is one product's approval flag as stated by the decision task.
type Decision struct {
	Name     string
	Approved bool
}

// ParseDecisions reads explicit is_approved fields from a decision task
// output. It accepts a single object, a list, a {"products": [...]} wrapper
// or an object keyed by product name.
func ParseDecisions(text string) ([]Decision, error) {
	var decisions []Decision
	_, err := FindJSON(text, func(raw json.RawMessage) bool {
		var value interface{}
		if json.Unmarshal(raw, &value) != nil {
			return false
		}
		decisions = collectDecisions("", value)
		return len(decisions) > 0
	})
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

func collectDecisions(key string, value interface{}) []Decision {
	switch v := value.(type) {
	case []interface{}:
		var out []Decision
		for _, item := range v {
			out = append(out, collectDecisions("", item)...)
		}
		return out
	case map[string]interface{}:
		if approved, ok := v["is_approved"].(bool); ok {
			name, _ := v["product_name"].(string)
			if name == "" {
				name = key
			}
			return []Decision{{Name: name, Approved: approved}}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []Decision
		for _, k := range keys {
			out = append(out, collectDecisions(k, v[k])...)
		}
		return out
	}
	return nil
}

// AnyApproved reports whether the decision output approves at least one
// product. Unparseable output is never approved.
func AnyApproved(text string) bool {
	decisions, err := ParseDecisions(text)
	if err != nil {
		return false
	}
	for _, d := range decisions {
		if d.Approved {
			return true
		}
	}
	return false
}
