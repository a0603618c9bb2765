package source

import (
	"context"
	"time"
)

// SourceType identifies which platform a record came from.
type SourceType string

const (
	SourceReddit SourceType = "reddit"
	SourceCPSC   SourceType = "cpsc"
	SourceIFixit SourceType = "ifixit"
	SourceRSS    SourceType = "rss"
)

// Kind classifies what a record says about a product.
type Kind string

const (
	KindComplaint   Kind = "complaint"
	KindPraise      Kind = "praise"
	KindRecall      Kind = "recall"
	KindRepairScore Kind = "repair_score"
)

// Product is the minimal product identity a collector needs to search for.
type Product struct {
	ID    string
	Name  string
	Brand string
}

// Record is the raw, per-source data point handed to the scoring engine's
// normalizer. Collectors fill in what they know; the normalizer decides
// whether the record is usable.
type Record struct {
	ProductID    string
	Source       SourceType
	Kind         Kind
	ExternalID   string
	Title        string
	Text         string
	URL          string
	SeverityHint string
	RepairScore  int
	PostedAt     time.Time
	CollectedAt  time.Time
}

// Source is the interface every collector must implement.
type Source interface {
	Name() SourceType
	Fetch(ctx context.Context, product Product) ([]Record, error)
}

// AllSourceTypes returns all known source types.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceReddit,
		SourceCPSC,
		SourceIFixit,
		SourceRSS,
	}
}
