package reliability

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

// Mention is one normalized, immutable data point about a product. Everything
// downstream of the normalizer is closed over this one shape and never
// re-inspects per-source structure.
type Mention struct {
	ID           int64             `db:"id" json:"-"`
	ProductID    string            `db:"product_id" json:"product_id"`
	Source       source.SourceType `db:"source" json:"source"`
	Kind         source.Kind       `db:"kind" json:"kind"`
	ExternalID   string            `db:"external_id" json:"-"`
	Weight       float64           `db:"weight" json:"weight"`
	Text         string            `db:"text" json:"text"`
	URL          string            `db:"url" json:"url,omitempty"`
	SeverityHint string            `db:"severity_hint" json:"severity_hint,omitempty"`
	RepairScore  int               `db:"repair_score" json:"repair_score,omitempty"`
	PostedAt     time.Time         `db:"posted_at" json:"posted_at"`
	CollectedAt  time.Time         `db:"collected_at" json:"collected_at"`
}

// Severity is the qualitative tier of an issue's seriousness.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

func maxSeverity(a, b Severity) Severity {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}

// Confidence expresses how much data backs a score, independent of the
// score's value.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// TrendDirection is the direction of score change between two adjacent time
// windows.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
	TrendUnknown   TrendDirection = "unknown"
)

// MalformedRecordError reports a raw record the normalizer refused. Such
// records are dropped and counted, never fatal to the batch.
type MalformedRecordError struct {
	Source source.SourceType
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record: %s", e.Source, e.Reason)
}

// ErrUnknownProduct marks a requested product identifier that is not in the
// snapshot. Fatal for single-product lookups; surfaced per-identifier in
// batch operations.
var ErrUnknownProduct = errors.New("unknown product")
