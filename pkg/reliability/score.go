package reliability

import (
	"math"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

// ScoreBreakdown itemizes how a score was reached, for explainability in
// reports and the API.
type ScoreBreakdown struct {
	ComplaintPenalty float64 `json:"complaint_penalty"`
	IssuePenalty     float64 `json:"issue_penalty"`
	RecallPenalty    float64 `json:"recall_penalty"`
	PraiseBonus      float64 `json:"praise_bonus"`
	RepairAdjustment float64 `json:"repair_adjustment"`
}

// ScoreResult is the scored summary for one product. Valid is false when no
// mentions exist at all; callers then report "insufficient data" instead of
// a number.
type ScoreResult struct {
	Valid       bool           `json:"valid"`
	Score       int            `json:"score"`
	Grade       string         `json:"grade"`
	Confidence  Confidence     `json:"confidence"`
	DataPoints  int            `json:"data_points"`
	SourceCount int            `json:"source_count"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}

// Score computes the 0-100 reliability score for one product's mentions.
// Identical multisets of mentions always produce identical results.
func (e *Engine) Score(mentions []Mention) ScoreResult {
	res := ScoreResult{
		DataPoints:  len(mentions),
		SourceCount: countSources(mentions),
	}
	res.Confidence = e.confidence(res.DataPoints, res.SourceCount)
	if len(mentions) == 0 {
		return res
	}
	res.Valid = true

	sp := e.params.Score

	var totalWeight, complaintWeight, praiseWeight float64
	recalls := 0
	repairScore := 0
	var repairPosted int64
	for _, m := range mentions {
		totalWeight += m.Weight
		switch m.Kind {
		case source.KindComplaint:
			complaintWeight += m.Weight
		case source.KindPraise:
			praiseWeight += m.Weight
		case source.KindRecall:
			complaintWeight += m.Weight
			recalls++
		case source.KindRepairScore:
			// Keep the newest repair score; teardown sites revise scores
			// when hardware revisions ship.
			if ts := m.PostedAt.UnixNano(); repairScore == 0 || ts > repairPosted {
				repairScore = m.RepairScore
				repairPosted = ts
			}
		}
	}

	score := 100.0

	// Complaint volume is judged relative to total volume, so a popular
	// product is not punished for having more of everything.
	if totalWeight > 0 {
		res.Breakdown.ComplaintPenalty = sp.ComplaintPenaltyScale * complaintWeight / totalWeight
	}
	score -= res.Breakdown.ComplaintPenalty

	// Each surfaced issue costs its severity penalty, amplified by how
	// often it is reported. log10 keeps runaway threads from dominating.
	var issuePenalty float64
	for _, iss := range e.Issues(mentions) {
		base := 0.0
		switch iss.Severity {
		case SeverityCritical:
			base = sp.IssuePenaltyCritical
		case SeverityHigh:
			base = sp.IssuePenaltyHigh
		case SeverityMedium:
			base = sp.IssuePenaltyMedium
		default:
			base = sp.IssuePenaltyLow
		}
		issuePenalty += base * (1 + math.Log10(float64(iss.Mentions)))
	}
	if issuePenalty > sp.IssuePenaltyCap {
		issuePenalty = sp.IssuePenaltyCap
	}
	res.Breakdown.IssuePenalty = issuePenalty
	score -= issuePenalty

	recallPenalty := float64(recalls) * sp.RecallPenalty
	if recallPenalty > sp.RecallPenaltyCap {
		recallPenalty = sp.RecallPenaltyCap
	}
	res.Breakdown.RecallPenalty = recallPenalty
	score -= recallPenalty

	praiseBonus := praiseWeight * sp.PraiseBonusRate
	if praiseBonus > sp.PraiseBonusCap {
		praiseBonus = sp.PraiseBonusCap
	}
	res.Breakdown.PraiseBonus = praiseBonus
	score += praiseBonus

	if repairScore > 0 {
		res.Breakdown.RepairAdjustment = (float64(repairScore) - sp.RepairPivot) * sp.RepairFactor
		score += res.Breakdown.RepairAdjustment
	}

	final := int(math.Round(score))
	if recalls > 0 && final > sp.RecallCeiling {
		final = sp.RecallCeiling
	}
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	res.Score = final
	res.Grade = e.grade(final)
	return res
}

// grade maps a score to its letter grade via the descending cutoff table.
func (e *Engine) grade(score int) string {
	for _, g := range e.params.Grades {
		if score >= g.Min {
			return g.Grade
		}
	}
	return "F"
}

// confidence estimates how trustworthy a score is. It depends only on how
// much data backs it and how many independent sources contributed, never on
// the score itself.
func (e *Engine) confidence(dataPoints, sourceCount int) Confidence {
	cp := e.params.Confidence
	switch {
	case dataPoints == 0:
		return ConfidenceNone
	case dataPoints < cp.LowFloor || sourceCount < cp.MinSources:
		return ConfidenceLow
	case dataPoints >= cp.HighFloor && sourceCount >= cp.MinSources:
		return ConfidenceHigh
	default:
		return ConfidenceMedium
	}
}

func countSources(mentions []Mention) int {
	seen := make(map[source.SourceType]bool)
	for _, m := range mentions {
		seen[m.Source] = true
	}
	return len(seen)
}
