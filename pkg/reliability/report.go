package reliability

import (
	"sort"
	"time"
)

// Reliability is the scored summary embedded in a report. Score is nil when
// no data exists, so callers see "insufficient data" rather than a fabricated
// number.
type Reliability struct {
	Score       *int           `json:"score"`
	Grade       string         `json:"grade,omitempty"`
	Confidence  Confidence     `json:"confidence"`
	DataPoints  int            `json:"data_points"`
	SourceCount int            `json:"source_count"`
	Trend       TrendDirection `json:"trend"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}

// Comparison situates a product within its category.
type Comparison struct {
	CategoryAverage    *int         `json:"category_average"`
	BetterAlternatives []ProductRef `json:"better_alternatives"`
}

// Report is the full reliability report for one product.
type Report struct {
	Product     ProductRef  `json:"product"`
	Reliability Reliability `json:"reliability"`
	Issues      []Issue     `json:"issues"`
	Positives   []Positive  `json:"positives"`
	Comparison  *Comparison `json:"comparison,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Report assembles the full report for one product. category holds the
// snapshots of every product in the same category (including the target);
// pass nil to skip the comparison section.
func (e *Engine) Report(snap Snapshot, category []Snapshot, now time.Time) Report {
	res := e.Score(snap.Mentions)
	trend := e.Trend(snap.Mentions, now)

	rel := Reliability{
		Confidence:  res.Confidence,
		DataPoints:  res.DataPoints,
		SourceCount: res.SourceCount,
		Trend:       trend.Direction,
		Breakdown:   res.Breakdown,
	}
	if res.Valid {
		score := res.Score
		rel.Score = &score
		rel.Grade = res.Grade
	}

	rep := Report{
		Product:     snap.Product,
		Reliability: rel,
		Issues:      e.Issues(snap.Mentions),
		Positives:   e.Positives(snap.Mentions),
		GeneratedAt: now.UTC(),
	}

	if category != nil {
		scored := e.ScoreAll(category)
		comp := Comparison{BetterAlternatives: []ProductRef{}}
		if avg, ok := e.CategoryAverage(scored); ok {
			comp.CategoryAverage = &avg
		}
		if res.Valid {
			target := ProductReliability{Product: snap.Product, Score: res}
			for _, alt := range e.BetterAlternatives(target, scored) {
				comp.BetterAlternatives = append(comp.BetterAlternatives, alt.Product)
			}
		}
		rep.Comparison = &comp
	}
	return rep
}

// CompareResult holds side-by-side reports for a multi-product compare
// request. Unknown identifiers are listed in NotFound; they never fail the
// whole request.
type CompareResult struct {
	Products    []Report    `json:"products"`
	NotFound    []string    `json:"not_found,omitempty"`
	Recommended *ProductRef `json:"recommended,omitempty"`
}

// Compare builds side-by-side reports for the requested product identifiers.
// snapshots maps every known product ID to its mention history. The
// recommendation is the best-ranked compared product whose score carries at
// least medium confidence.
func (e *Engine) Compare(ids []string, snapshots map[string]Snapshot, now time.Time) CompareResult {
	var result CompareResult
	var scored []ProductReliability
	for _, id := range ids {
		snap, ok := snapshots[id]
		if !ok {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		result.Products = append(result.Products, e.Report(snap, nil, now))
		if res := e.Score(snap.Mentions); res.Valid {
			scored = append(scored, ProductReliability{Product: snap.Product, Score: res})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return rankBetter(scored[i], scored[j]) })
	for _, p := range scored {
		if p.Score.Confidence.rank() >= ConfidenceMedium.rank() {
			ref := p.Product
			result.Recommended = &ref
			break
		}
	}
	return result
}
