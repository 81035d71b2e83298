package importer

import "strings"

// topicRule matches a violation clause against an enforcement topic, either
// by statute-code prefix or by keyword in the clause text.
type topicRule struct {
	prefixes []string
	keywords []string
}

var (
	duiRule = topicRule{
		prefixes: []string{"3501", "3503", "3504", "7302", "7303"},
		keywords: []string{"酒精", "酒駕", "酒測", "吸食毒品"},
	}
	redLightRule = topicRule{
		prefixes: []string{"5301", "5302", "6002030060", "6002030110"},
		keywords: []string{"闖紅燈", "紅燈越線", "紅燈右轉", "紅燈左轉", "紅燈迴轉"},
	}
	dangerousRule = topicRule{
		prefixes: []string{"4000", "4301", "4304", "6201", "6203", "6204", "4501030010", "4501030020"},
		keywords: []string{"超速", "危險駕駛", "逼車", "肇事逃逸"},
	}
)

func (r topicRule) matches(code, name string) bool {
	for _, p := range r.prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	for _, k := range r.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// TopicFlags are the enforcement topics a single violation clause falls
// under. A clause can satisfy more than one rule at once.
type TopicFlags struct {
	DUI       bool
	RedLight  bool
	Dangerous bool
}

// ClassifyViolation classifies a raw violation clause cell of the form
// "<statute code> <clause text>", e.g. "53010 汽車駕駛人闖紅燈".
func ClassifyViolation(clause string) TopicFlags {
	code, name := splitClause(clause)
	return TopicFlags{
		DUI:       duiRule.matches(code, name),
		RedLight:  redLightRule.matches(code, name),
		Dangerous: dangerousRule.matches(code, name),
	}
}

func splitClause(clause string) (code, name string) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return "", ""
	}
	if i := strings.IndexByte(clause, ' '); i >= 0 {
		return clause[:i], strings.TrimSpace(clause[i+1:])
	}
	return clause, ""
}
