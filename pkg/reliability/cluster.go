package reliability

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

// Issue is a cluster of mentions believed to describe the same underlying
// defect.
type Issue struct {
	Title              string              `json:"title"`
	Severity           Severity            `json:"severity"`
	Mentions           int                 `json:"mentions"`
	AffectedPercentage int                 `json:"affected_percentage"`
	Sources            []source.SourceType `json:"sources"`
	FirstReported      time.Time           `json:"first_reported"`

	// WeightSum feeds the severity classifier and score calculator; it is
	// not part of the public report shape.
	WeightSum float64 `json:"-"`
	HasRecall bool    `json:"-"`
}

// Positive is a cluster of praise mentions, the issue list's good-news twin.
type Positive struct {
	Title    string              `json:"title"`
	Mentions int                 `json:"mentions"`
	Sources  []source.SourceType `json:"sources"`
}

// Issues partitions a product's complaint and recall mentions into surfaced
// issue clusters. The partition is order-independent: permuting the input
// yields the same issues.
func (e *Engine) Issues(mentions []Mention) []Issue {
	var defects []Mention
	for _, m := range mentions {
		if m.Kind == source.KindComplaint || m.Kind == source.KindRecall {
			defects = append(defects, m)
		}
	}
	if len(defects) == 0 {
		return []Issue{}
	}

	clusters := clusterByText(defects, e.params.ClusterThreshold)

	var totalWeight float64
	for _, m := range defects {
		totalWeight += m.Weight
	}

	issues := make([]Issue, 0, len(clusters))
	for _, cluster := range clusters {
		iss := buildIssue(cluster, totalWeight)
		// One-off noise never surfaces as a known issue, but an official
		// recall always does, no matter how lonely.
		if iss.Mentions < e.params.MinSupport && !iss.HasRecall {
			continue
		}
		iss.Severity = e.classifySeverity(cluster, iss)
		issues = append(issues, iss)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity.rank() != issues[j].Severity.rank() {
			return issues[i].Severity.rank() > issues[j].Severity.rank()
		}
		if issues[i].Mentions != issues[j].Mentions {
			return issues[i].Mentions > issues[j].Mentions
		}
		return issues[i].Title < issues[j].Title
	})
	return issues
}

// Positives clusters praise mentions the same way Issues clusters complaints.
func (e *Engine) Positives(mentions []Mention) []Positive {
	var praise []Mention
	for _, m := range mentions {
		if m.Kind == source.KindPraise {
			praise = append(praise, m)
		}
	}
	if len(praise) == 0 {
		return []Positive{}
	}

	clusters := clusterByText(praise, e.params.ClusterThreshold)

	positives := make([]Positive, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster) < e.params.MinSupport {
			continue
		}
		positives = append(positives, Positive{
			Title:    cluster[0].Text,
			Mentions: len(cluster),
			Sources:  distinctSources(cluster),
		})
	}

	sort.SliceStable(positives, func(i, j int) bool {
		if positives[i].Mentions != positives[j].Mentions {
			return positives[i].Mentions > positives[j].Mentions
		}
		return positives[i].Title < positives[j].Title
	})
	return positives
}

func buildIssue(cluster []Mention, totalWeight float64) Issue {
	iss := Issue{
		Title:    cluster[0].Text,
		Mentions: len(cluster),
		Sources:  distinctSources(cluster),
	}
	for _, m := range cluster {
		iss.WeightSum += m.Weight
		if m.Kind == source.KindRecall {
			iss.HasRecall = true
		}
		if iss.FirstReported.IsZero() || m.PostedAt.Before(iss.FirstReported) {
			iss.FirstReported = m.PostedAt
		}
	}

	if totalWeight > 0 {
		pct := int(math.Round(100 * iss.WeightSum / totalWeight))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		iss.AffectedPercentage = pct
	}
	return iss
}

// clusterByText groups mentions whose texts exceed the similarity threshold,
// using union-find over the pairwise similarity graph. Transitive closure
// over a symmetric relation makes the partition independent of input order;
// canonical sorting makes titles and output order deterministic too.
func clusterByText(mentions []Mention, threshold float64) [][]Mention {
	// Canonical order: highest weight first, then most recent, then text.
	// The first member of each cluster is its title.
	ordered := make([]Mention, len(mentions))
	copy(ordered, mentions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Weight != ordered[j].Weight {
			return ordered[i].Weight > ordered[j].Weight
		}
		if !ordered[i].PostedAt.Equal(ordered[j].PostedAt) {
			return ordered[i].PostedAt.After(ordered[j].PostedAt)
		}
		return ordered[i].Text < ordered[j].Text
	})

	n := len(ordered)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(x, y int) {
		px, py := find(x), find(y)
		if px != py {
			parent[py] = px
		}
	}

	tokens := make([][]string, n)
	for i, m := range ordered {
		tokens[i] = significantTokens(m.Text)
	}

	// O(n^2), but n is a single product's mention count (hundreds to low
	// thousands).
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if jaccardSimilarity(tokens[i], tokens[j]) >= threshold {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]Mention)
	var roots []int
	for i := 0; i < n; i++ {
		root := find(i)
		if _, seen := groups[root]; !seen {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], ordered[i])
	}

	// Roots appear in canonical mention order, so iterating them keeps the
	// cluster list deterministic.
	clusters := make([][]Mention, 0, len(groups))
	for _, root := range roots {
		clusters = append(clusters, groups[root])
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		wi, wj := clusterWeight(clusters[i]), clusterWeight(clusters[j])
		if wi != wj {
			return wi > wj
		}
		return clusters[i][0].Text < clusters[j][0].Text
	})
	return clusters
}

func clusterWeight(cluster []Mention) float64 {
	var sum float64
	for _, m := range cluster {
		sum += m.Weight
	}
	return sum
}

func distinctSources(cluster []Mention) []source.SourceType {
	seen := make(map[source.SourceType]bool)
	var sources []source.SourceType
	for _, m := range cluster {
		if !seen[m.Source] {
			seen[m.Source] = true
			sources = append(sources, m.Source)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "i": true, "we": true, "you": true,
	"my": true, "your": true, "mine": true, "me": true,
	"how": true, "what": true, "when": true, "where": true, "why": true,
	"not": true, "no": true, "just": true, "about": true, "anyone": true,
	"else": true, "up": true, "out": true, "if": true, "so": true,
	"can": true, "all": true, "more": true, "also": true, "than": true,
	"very": true, "really": true, "after": true, "monitor": true,
}

// significantTokens extracts meaningful words from mention text.
func significantTokens(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, w := range words {
		if len(w) >= 2 && !stopwords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// jaccardSimilarity returns the Jaccard index of two token sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}

	unionSize := len(setA) + len(setB) - intersection
	if unionSize == 0 {
		return 0
	}
	return float64(intersection) / float64(unionSize)
}
