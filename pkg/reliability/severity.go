package reliability

import "strings"

// Keyword floors. Matching text raises an issue's severity to at least the
// floor; it never lowers it.
var criticalKeywords = []string{
	"fire", "smoke", "burn", "shock", "electrocut", "explod", "injur", "hazard",
}

var highKeywords = []string{
	"dead", "died", "broken", "bricked", "defect", "failure", "failed",
	"stopped working", "won't turn on", "wont turn on", "unusable",
}

// classifySeverity assigns a tier to an issue cluster. An official recall in
// the cluster is authoritative and forces critical. Otherwise severity is a
// monotone step function of affected percentage and weighted volume, raised
// to any keyword floor the cluster text triggers.
func (e *Engine) classifySeverity(cluster []Mention, iss Issue) Severity {
	if iss.HasRecall {
		return SeverityCritical
	}

	sev := SeverityLow
	sp := e.params.Severity
	if float64(iss.AffectedPercentage) >= sp.HighAffectedPct && iss.WeightSum >= sp.HighWeight {
		sev = SeverityHigh
	} else if float64(iss.AffectedPercentage) >= sp.MediumAffectedPct || iss.WeightSum >= sp.MediumWeight {
		sev = SeverityMedium
	}

	for _, m := range cluster {
		sev = maxSeverity(sev, keywordFloor(m.Text))
		if m.SeverityHint != "" {
			sev = maxSeverity(sev, Severity(m.SeverityHint))
		}
	}
	return sev
}

// keywordFloor returns the minimum severity implied by the text alone.
func keywordFloor(text string) Severity {
	lower := strings.ToLower(text)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return SeverityCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return SeverityHigh
		}
	}
	return SeverityLow
}
