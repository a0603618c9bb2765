package reliability

import "fmt"

// Params holds every tunable knob of the scoring engine. Values come from the
// config file; NewEngine rejects inconsistent sets before any computation runs.
type Params struct {
	// SourceWeights is the per-source trust table, keyed by source name.
	// Official recall sources are weighted highest, forum chatter lowest.
	SourceWeights map[string]float64 `yaml:"source_weights"`

	// ClusterThreshold is the minimum Jaccard similarity for two mention
	// texts to land in the same issue cluster.
	ClusterThreshold float64 `yaml:"cluster_threshold"`

	// MinSupport is the smallest cluster size surfaced as a known issue.
	// Smaller clusters still count toward data points.
	MinSupport int `yaml:"min_support"`

	Severity   SeverityParams   `yaml:"severity"`
	Score      ScoreParams      `yaml:"score"`
	Grades     []GradeCutoff    `yaml:"grades"`
	Confidence ConfidenceParams `yaml:"confidence"`
	Trend      TrendParams      `yaml:"trend"`
	Compare    CompareParams    `yaml:"compare"`
}

// SeverityParams are the step thresholds for non-recall severity. An issue is
// high when it clears both high thresholds, medium when it clears either
// medium threshold, low otherwise.
type SeverityParams struct {
	MediumAffectedPct float64 `yaml:"medium_affected_pct"`
	MediumWeight      float64 `yaml:"medium_weight"`
	HighAffectedPct   float64 `yaml:"high_affected_pct"`
	HighWeight        float64 `yaml:"high_weight"`
}

// ScoreParams are the penalty and bonus constants of the score calculator.
type ScoreParams struct {
	// ComplaintPenaltyScale is the penalty applied at a 100% weighted
	// complaint rate; actual penalty scales with the rate, so complaint
	// volume on a heavily-reviewed product is judged against its total
	// volume, not in absolute terms.
	ComplaintPenaltyScale float64 `yaml:"complaint_penalty_scale"`

	IssuePenaltyCritical float64 `yaml:"issue_penalty_critical"`
	IssuePenaltyHigh     float64 `yaml:"issue_penalty_high"`
	IssuePenaltyMedium   float64 `yaml:"issue_penalty_medium"`
	IssuePenaltyLow      float64 `yaml:"issue_penalty_low"`
	IssuePenaltyCap      float64 `yaml:"issue_penalty_cap"`

	// Recalls are a hard safety signal, penalized independently of
	// complaint volume, and any recall caps the final score at RecallCeiling.
	RecallPenalty    float64 `yaml:"recall_penalty"`
	RecallPenaltyCap float64 `yaml:"recall_penalty_cap"`
	RecallCeiling    int     `yaml:"recall_ceiling"`

	PraiseBonusRate float64 `yaml:"praise_bonus_rate"`
	PraiseBonusCap  float64 `yaml:"praise_bonus_cap"`

	// An iFixit 1-10 repairability score adjusts the result by
	// (score - RepairPivot) * RepairFactor.
	RepairPivot  float64 `yaml:"repair_pivot"`
	RepairFactor float64 `yaml:"repair_factor"`
}

// GradeCutoff maps a minimum score to a letter grade. Cutoffs must be
// strictly descending; scores below the last cutoff grade F.
type GradeCutoff struct {
	Min   int    `yaml:"min"`
	Grade string `yaml:"grade"`
}

// ConfidenceParams control the confidence estimator.
type ConfidenceParams struct {
	// LowFloor is the data-point count below which confidence is low.
	// It doubles as the minimum window population for trend analysis.
	LowFloor int `yaml:"low_floor"`
	// HighFloor is the data-point count at or above which confidence is
	// high, provided at least MinSources distinct sources contributed.
	HighFloor  int `yaml:"high_floor"`
	MinSources int `yaml:"min_sources"`
}

// TrendParams control the two-window trend comparison.
type TrendParams struct {
	WindowDays int `yaml:"window_days"`
	// Epsilon is the noise tolerance: score deltas within it are "stable".
	Epsilon int `yaml:"epsilon"`
}

// CompareParams control category rankings.
type CompareParams struct {
	// AvoidThreshold is the score below which a product lands on the
	// avoid list.
	AvoidThreshold  int `yaml:"avoid_threshold"`
	MaxAlternatives int `yaml:"max_alternatives"`
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		SourceWeights: map[string]float64{
			"cpsc":   3.0,
			"ifixit": 2.0,
			"rss":    1.5,
			"reddit": 1.0,
		},
		ClusterThreshold: 0.3,
		MinSupport:       2,
		Severity: SeverityParams{
			MediumAffectedPct: 10,
			MediumWeight:      4,
			HighAffectedPct:   30,
			HighWeight:        10,
		},
		Score: ScoreParams{
			ComplaintPenaltyScale: 30,
			IssuePenaltyCritical:  25,
			IssuePenaltyHigh:      15,
			IssuePenaltyMedium:    8,
			IssuePenaltyLow:       3,
			IssuePenaltyCap:       60,
			RecallPenalty:         20,
			RecallPenaltyCap:      40,
			RecallCeiling:         60,
			PraiseBonusRate:       0.05,
			PraiseBonusCap:        10,
			RepairPivot:           5,
			RepairFactor:          1.5,
		},
		Grades: []GradeCutoff{
			{Min: 90, Grade: "A+"},
			{Min: 85, Grade: "A"},
			{Min: 80, Grade: "B+"},
			{Min: 70, Grade: "B"},
			{Min: 60, Grade: "C+"},
			{Min: 50, Grade: "C"},
			{Min: 40, Grade: "D"},
		},
		Confidence: ConfidenceParams{
			LowFloor:   100,
			HighFloor:  500,
			MinSources: 2,
		},
		Trend: TrendParams{
			WindowDays: 90,
			Epsilon:    5,
		},
		Compare: CompareParams{
			AvoidThreshold:  60,
			MaxAlternatives: 3,
		},
	}
}

// Validate checks internal consistency. An invalid parameter set is a fatal
// startup error, never a silent fallback.
func (p Params) Validate() error {
	for name, w := range p.SourceWeights {
		if w <= 0 {
			return fmt.Errorf("source weight for %q must be positive, got %v", name, w)
		}
	}
	if p.ClusterThreshold <= 0 || p.ClusterThreshold > 1 {
		return fmt.Errorf("cluster_threshold must be in (0,1], got %v", p.ClusterThreshold)
	}
	if p.MinSupport < 1 {
		return fmt.Errorf("min_support must be >= 1, got %d", p.MinSupport)
	}

	if p.Severity.MediumAffectedPct > p.Severity.HighAffectedPct {
		return fmt.Errorf("severity medium_affected_pct (%v) exceeds high_affected_pct (%v)",
			p.Severity.MediumAffectedPct, p.Severity.HighAffectedPct)
	}
	if p.Severity.MediumWeight > p.Severity.HighWeight {
		return fmt.Errorf("severity medium_weight (%v) exceeds high_weight (%v)",
			p.Severity.MediumWeight, p.Severity.HighWeight)
	}

	s := p.Score
	for name, v := range map[string]float64{
		"complaint_penalty_scale": s.ComplaintPenaltyScale,
		"issue_penalty_critical":  s.IssuePenaltyCritical,
		"issue_penalty_high":      s.IssuePenaltyHigh,
		"issue_penalty_medium":    s.IssuePenaltyMedium,
		"issue_penalty_low":       s.IssuePenaltyLow,
		"issue_penalty_cap":       s.IssuePenaltyCap,
		"recall_penalty":          s.RecallPenalty,
		"recall_penalty_cap":      s.RecallPenaltyCap,
		"praise_bonus_rate":       s.PraiseBonusRate,
		"praise_bonus_cap":        s.PraiseBonusCap,
	} {
		if v < 0 {
			return fmt.Errorf("score %s must be >= 0, got %v", name, v)
		}
	}
	if s.RecallCeiling < 0 || s.RecallCeiling > 100 {
		return fmt.Errorf("recall_ceiling must be in [0,100], got %d", s.RecallCeiling)
	}

	if len(p.Grades) == 0 {
		return fmt.Errorf("at least one grade cutoff is required")
	}
	prev := 101
	for _, g := range p.Grades {
		if g.Min < 0 || g.Min > 100 {
			return fmt.Errorf("grade cutoff %q min %d out of range [0,100]", g.Grade, g.Min)
		}
		if g.Min >= prev {
			return fmt.Errorf("grade cutoffs must be strictly descending: %q min %d follows %d", g.Grade, g.Min, prev)
		}
		if g.Grade == "" {
			return fmt.Errorf("grade cutoff with min %d has empty grade", g.Min)
		}
		prev = g.Min
	}

	if p.Confidence.LowFloor < 1 {
		return fmt.Errorf("confidence low_floor must be >= 1, got %d", p.Confidence.LowFloor)
	}
	if p.Confidence.HighFloor < p.Confidence.LowFloor {
		return fmt.Errorf("confidence high_floor (%d) below low_floor (%d)",
			p.Confidence.HighFloor, p.Confidence.LowFloor)
	}
	if p.Confidence.MinSources < 1 {
		return fmt.Errorf("confidence min_sources must be >= 1, got %d", p.Confidence.MinSources)
	}

	if p.Trend.WindowDays < 1 {
		return fmt.Errorf("trend window_days must be >= 1, got %d", p.Trend.WindowDays)
	}
	if p.Trend.Epsilon < 0 {
		return fmt.Errorf("trend epsilon must be >= 0, got %d", p.Trend.Epsilon)
	}

	if p.Compare.AvoidThreshold < 0 || p.Compare.AvoidThreshold > 100 {
		return fmt.Errorf("compare avoid_threshold must be in [0,100], got %d", p.Compare.AvoidThreshold)
	}
	if p.Compare.MaxAlternatives < 1 {
		return fmt.Errorf("compare max_alternatives must be >= 1, got %d", p.Compare.MaxAlternatives)
	}

	return nil
}
