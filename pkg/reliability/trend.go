package reliability

import "time"

// TrendResult compares scores across two adjacent time windows.
type TrendResult struct {
	Direction TrendDirection `json:"direction"`
	// Delta is recent minus prior; only meaningful when Direction is not
	// unknown.
	Delta        int `json:"delta"`
	RecentScore  int `json:"recent_score"`
	PriorScore   int `json:"prior_score"`
	RecentPoints int `json:"recent_points"`
	PriorPoints  int `json:"prior_points"`
}

// Trend scores the mentions posted in the window ending at now against those
// in the window immediately before it. Either window with too little data to
// score honestly yields an unknown direction rather than a guess.
func (e *Engine) Trend(mentions []Mention, now time.Time) TrendResult {
	window := time.Duration(e.params.Trend.WindowDays) * 24 * time.Hour
	recentStart := now.Add(-window)
	priorStart := now.Add(-2 * window)

	var recent, prior []Mention
	for _, m := range mentions {
		switch {
		case m.PostedAt.After(recentStart) && !m.PostedAt.After(now):
			recent = append(recent, m)
		case m.PostedAt.After(priorStart) && !m.PostedAt.After(recentStart):
			prior = append(prior, m)
		}
	}

	res := TrendResult{
		Direction:    TrendUnknown,
		RecentPoints: len(recent),
		PriorPoints:  len(prior),
	}

	floor := e.params.Confidence.LowFloor
	if len(recent) < floor || len(prior) < floor {
		return res
	}

	recentScore := e.Score(recent)
	priorScore := e.Score(prior)
	res.RecentScore = recentScore.Score
	res.PriorScore = priorScore.Score
	res.Delta = recentScore.Score - priorScore.Score

	switch {
	case res.Delta > e.params.Trend.Epsilon:
		res.Direction = TrendImproving
	case res.Delta < -e.params.Trend.Epsilon:
		res.Direction = TrendDeclining
	default:
		res.Direction = TrendStable
	}
	return res
}
