// Package safety screens assistant output for medical advice, diagnosis and
// promotional language before it reaches the user.
package safety

import (
	"regexp"

	"github.com/pharmassist/pharmassist/internal/i18n"
)

type rule struct {
	pattern *regexp.Regexp
	reason  string
}

// Advice rules distinguish personal advice from label information:
// "The recommended dose is 500mg" passes, "I recommend you take 500mg" does
// not.
var medicalRules = []rule{
	{regexp.MustCompile(`(?i)\bdiagnos(e|is)\b`), "diagnosis"},
	{regexp.MustCompile(`(?i)\b(should (I|you) take|you should take|I should take)\b`), "direct advice"},
	{regexp.MustCompile(`(?i)\bI recommend( a| your)? dose\b`), "dose recommendation"},
	{regexp.MustCompile(`(?i)\bincrease (your|the) dose\b`), "dose adjustment"},
	{regexp.MustCompile(`(?i)\bdouble (your|the) dose\b`), "dose adjustment"},
	{regexp.MustCompile(`(?i)\b(avoid|don't take).*(interaction|with)\b`), "drug interaction advice"},
	{regexp.MustCompile(`(?i)\b(you can|you may|it's safe to)\s+take\b.*\bpregnan(t|cy)\b`), "pregnancy advice"},
	{regexp.MustCompile(`(?i)\bpregnan(t|cy)\b.*(you can|you may|it's safe to)\s+take\b`), "pregnancy advice"},
	{regexp.MustCompile(`(?i)\b(you can|you may|it's safe to)\s+take\b.*\bbreastfeed(ing)?\b`), "breastfeeding advice"},
	{regexp.MustCompile(`(?i)\bbreastfeed(ing)?\b.*(you can|you may|it's safe to)\s+take\b`), "breastfeeding advice"},
	{regexp.MustCompile(`(?i)\ballerg(y|ies)?\b.*(you can|you may|it's safe to)\s+take\b`), "allergy advice"},
	{regexp.MustCompile(`(?i)\b(you can|you may|it's safe to)\s+take\b.*\ballerg(y|ies)?\b`), "allergy advice"},
	{regexp.MustCompile(`(?i)\bsafe for (me|you)\b`), "suitability judgment"},
	{regexp.MustCompile(`(?i)\b(this|that|it) is better (than|for)\b`), "comparative recommendation"},
	{regexp.MustCompile(`(?i)\bI recommend( this| that| the)? (medication|medicine)\b`), "medication recommendation"},
	{regexp.MustCompile(`(?i)\byou (should|need to|must) (start|stop|continue)\b`), "treatment advice"},
	{regexp.MustCompile(`(?i)\byou (should|can|may) (skip|miss) (a |your )?dose\b`), "dose modification advice"},
}

var upsellRules = []rule{
	{regexp.MustCompile(`(?i)\byou should (buy|purchase|get)\b`), "purchase encouragement"},
	{regexp.MustCompile(`(?i)\bI recommend (buying|purchasing|getting)\b`), "purchase recommendation"},
	{regexp.MustCompile(`(?i)\b(great|good|best|excellent) (deal|value|price|buy)\b`), "promotional language"},
	{regexp.MustCompile(`(?i)\b(on sale|limited time|special offer|discount)\b`), "promotional language"},
	{regexp.MustCompile(`(?i)\b(hurry|act now|don't miss|while supplies last)\b`), "urgency marketing"},
	{regexp.MustCompile(`(?i)\b(cheaper|more affordable|better value) than\b`), "price comparison"},
	{regexp.MustCompile(`(?i)\bwhy not (try|get|buy)\b`), "purchase suggestion"},
	{regexp.MustCompile(`(?i)\byou('ll| will) (love|like|enjoy)\b`), "promotional endorsement"},
}

// Guard checks text against the combined rule set.
type Guard struct {
	rules []rule
}

func NewGuard() *Guard {
	rules := make([]rule, 0, len(medicalRules)+len(upsellRules))
	rules = append(rules, medicalRules...)
	rules = append(rules, upsellRules...)
	return &Guard{rules: rules}
}

// Check returns the violation reason for the first matched rule, or "" when
// the text is clean.
func (g *Guard) Check(text string) string {
	for _, r := range g.rules {
		if r.pattern.MatchString(text) {
			return r.reason
		}
	}
	return ""
}

// RefusalMessage is the localized replacement text for blocked output.
func RefusalMessage(reason, lang string) string {
	msg := i18n.Get("safety", "refusal_base", lang, nil)
	if reason != "" {
		msg += " " + i18n.Get("safety", "refusal_suffix", lang, i18n.Args{"reason": reason})
	}
	return msg
}
