package reliability

import (
	"sort"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

// ProductRef identifies a product in rankings and reports.
type ProductRef struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Brand    string `db:"brand" json:"brand"`
	Category string `db:"category" json:"category"`
}

// Snapshot is one product's materialized mention history, handed to the
// engine by the storage layer. The engine never queries storage itself.
type Snapshot struct {
	Product  ProductRef
	Mentions []Mention
}

// ProductReliability pairs a product with its current score, the unit of
// ranking within a category.
type ProductReliability struct {
	Product ProductRef  `json:"product"`
	Score   ScoreResult `json:"score"`
}

// rankBetter reports whether a should rank above b in a best-first list.
// Ties on score break on confidence, then data-point volume, then ID so the
// order is total.
func rankBetter(a, b ProductReliability) bool {
	if a.Score.Score != b.Score.Score {
		return a.Score.Score > b.Score.Score
	}
	if a.Score.Confidence.rank() != b.Score.Confidence.rank() {
		return a.Score.Confidence.rank() > b.Score.Confidence.rank()
	}
	if a.Score.DataPoints != b.Score.DataPoints {
		return a.Score.DataPoints > b.Score.DataPoints
	}
	return a.Product.ID < b.Product.ID
}

// ScoreAll scores every snapshot in a category, dropping products with no
// data at all.
func (e *Engine) ScoreAll(snapshots []Snapshot) []ProductReliability {
	scored := make([]ProductReliability, 0, len(snapshots))
	for _, snap := range snapshots {
		res := e.Score(snap.Mentions)
		if !res.Valid {
			continue
		}
		scored = append(scored, ProductReliability{Product: snap.Product, Score: res})
	}
	return scored
}

// TopProducts ranks scored products best first, capped at n.
func (e *Engine) TopProducts(scored []ProductReliability, n int) []ProductReliability {
	ranked := make([]ProductReliability, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool { return rankBetter(ranked[i], ranked[j]) })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// AvoidProducts lists products scoring below the avoid threshold, worst
// first, capped at n. Within a score, better-backed entries rank first so the
// list leads with the complaints we are surest about.
func (e *Engine) AvoidProducts(scored []ProductReliability, n int) []ProductReliability {
	var avoid []ProductReliability
	for _, p := range scored {
		if p.Score.Score < e.params.Compare.AvoidThreshold {
			avoid = append(avoid, p)
		}
	}
	sort.SliceStable(avoid, func(i, j int) bool {
		if avoid[i].Score.Score != avoid[j].Score.Score {
			return avoid[i].Score.Score < avoid[j].Score.Score
		}
		if avoid[i].Score.Confidence.rank() != avoid[j].Score.Confidence.rank() {
			return avoid[i].Score.Confidence.rank() > avoid[j].Score.Confidence.rank()
		}
		if avoid[i].Score.DataPoints != avoid[j].Score.DataPoints {
			return avoid[i].Score.DataPoints > avoid[j].Score.DataPoints
		}
		return avoid[i].Product.ID < avoid[j].Product.ID
	})
	if n > 0 && len(avoid) > n {
		avoid = avoid[:n]
	}
	return avoid
}

// BetterAlternatives finds same-category products that strictly outscore the
// target with at least medium confidence, best first.
func (e *Engine) BetterAlternatives(target ProductReliability, scored []ProductReliability) []ProductReliability {
	var alts []ProductReliability
	for _, p := range scored {
		if p.Product.ID == target.Product.ID {
			continue
		}
		if p.Score.Score > target.Score.Score && p.Score.Confidence.rank() >= ConfidenceMedium.rank() {
			alts = append(alts, p)
		}
	}
	sort.SliceStable(alts, func(i, j int) bool { return rankBetter(alts[i], alts[j]) })
	if len(alts) > e.params.Compare.MaxAlternatives {
		alts = alts[:e.params.Compare.MaxAlternatives]
	}
	return alts
}

// CategoryAverage returns the rounded mean score across scored products. The
// second result is false when the category has no scoreable products.
func (e *Engine) CategoryAverage(scored []ProductReliability) (int, bool) {
	if len(scored) == 0 {
		return 0, false
	}
	sum := 0
	for _, p := range scored {
		sum += p.Score.Score
	}
	avg := float64(sum) / float64(len(scored))
	return int(avg + 0.5), true
}

// TrendingIssue is an issue whose mention count grew between the two most
// recent trend windows.
type TrendingIssue struct {
	ProductID      string   `json:"product_id"`
	ProductName    string   `json:"product_name"`
	Title          string   `json:"title"`
	Severity       Severity `json:"severity"`
	RecentMentions int      `json:"recent_mentions"`
	PriorMentions  int      `json:"prior_mentions"`
	Growth         int      `json:"growth"`
}

// TrendingIssues surfaces the fastest-growing issues across all given
// products, sorted by growth, capped at n. Clusters are built over both
// windows together so an issue keeps one identity while its window counts
// are compared.
func (e *Engine) TrendingIssues(snapshots []Snapshot, now time.Time, n int) []TrendingIssue {
	window := time.Duration(e.params.Trend.WindowDays) * 24 * time.Hour
	recentStart := now.Add(-window)
	priorStart := now.Add(-2 * window)

	var trending []TrendingIssue
	for _, snap := range snapshots {
		var defects []Mention
		for _, m := range snap.Mentions {
			if m.Kind != source.KindComplaint && m.Kind != source.KindRecall {
				continue
			}
			if m.PostedAt.After(priorStart) && !m.PostedAt.After(now) {
				defects = append(defects, m)
			}
		}
		if len(defects) == 0 {
			continue
		}

		var totalWeight float64
		for _, m := range defects {
			totalWeight += m.Weight
		}

		for _, cluster := range clusterByText(defects, e.params.ClusterThreshold) {
			iss := buildIssue(cluster, totalWeight)
			if iss.Mentions < e.params.MinSupport && !iss.HasRecall {
				continue
			}
			recent, prior := 0, 0
			for _, m := range cluster {
				if m.PostedAt.After(recentStart) {
					recent++
				} else {
					prior++
				}
			}
			if recent <= prior {
				continue
			}
			trending = append(trending, TrendingIssue{
				ProductID:      snap.Product.ID,
				ProductName:    snap.Product.Name,
				Title:          iss.Title,
				Severity:       e.classifySeverity(cluster, iss),
				RecentMentions: recent,
				PriorMentions:  prior,
				Growth:         recent - prior,
			})
		}
	}

	sort.SliceStable(trending, func(i, j int) bool {
		if trending[i].Growth != trending[j].Growth {
			return trending[i].Growth > trending[j].Growth
		}
		if trending[i].Severity.rank() != trending[j].Severity.rank() {
			return trending[i].Severity.rank() > trending[j].Severity.rank()
		}
		if trending[i].ProductID != trending[j].ProductID {
			return trending[i].ProductID < trending[j].ProductID
		}
		return trending[i].Title < trending[j].Title
	})
	if n > 0 && len(trending) > n {
		trending = trending[:n]
	}
	return trending
}
