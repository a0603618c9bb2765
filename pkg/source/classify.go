package source

import "strings"

// Keyword lists for sentiment classification of forum and feed chatter.
// People posting about hardware overwhelmingly signal sentiment with a small
// vocabulary, so a contains-check gets us surprisingly far.
var negativeKeywords = []string{
	"issue", "problem", "broken", "defect", "dead pixel", "flicker",
	"return", "returning", "refund", "disappointed", "terrible", "awful",
	"worst", "avoid", "warning", "regret", "rma", "doa", "burn-in",
	"backlight bleed", "scan line", "quality control", "bricked",
}

var positiveKeywords = []string{
	"love", "amazing", "great", "excellent", "perfect", "best",
	"recommend", "awesome", "fantastic", "worth", "no regrets",
	"stunning", "impressed",
}

// ClassifySentiment buckets free-form text as a complaint, praise, or
// neither. Neutral text (questions, comparisons) yields an empty Kind and is
// skipped by collectors.
func ClassifySentiment(text string) Kind {
	lower := strings.ToLower(text)

	neg := 0
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			neg++
		}
	}
	pos := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			pos++
		}
	}

	switch {
	case neg > pos:
		return KindComplaint
	case pos > neg:
		return KindPraise
	default:
		return ""
	}
}

// MentionsProduct reports whether text plausibly refers to the given product.
// Used by feed collectors that see a firehose of review-site items and must
// keep only the ones about the product being fetched.
func MentionsProduct(text string, p Product) bool {
	lower := strings.ToLower(text)
	if p.Name != "" && strings.Contains(lower, strings.ToLower(p.Name)) {
		return true
	}
	// Fall back to brand + model token, e.g. "LG" and "27GP950".
	if p.Brand == "" {
		return false
	}
	if !strings.Contains(lower, strings.ToLower(p.Brand)) {
		return false
	}
	for _, tok := range strings.Fields(strings.ToLower(p.Name)) {
		if tok == strings.ToLower(p.Brand) {
			continue
		}
		if len(tok) >= 4 && strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
