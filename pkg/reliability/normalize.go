package reliability

import (
	"fmt"
	"os"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

// Normalizer canonicalizes raw per-source records into Mentions, assigning
// each its source trust weight.
type Normalizer struct {
	weights map[source.SourceType]float64
}

// NewNormalizer builds a normalizer from the per-source trust table.
func NewNormalizer(weights map[string]float64) *Normalizer {
	w := make(map[source.SourceType]float64, len(weights))
	for name, weight := range weights {
		w[source.SourceType(name)] = weight
	}
	return &Normalizer{weights: w}
}

// Normalize converts a batch of raw records. Malformed records are dropped
// and counted; they never abort the batch.
func (n *Normalizer) Normalize(records []source.Record) (mentions []Mention, dropped int) {
	for _, rec := range records {
		m, err := n.normalize(rec)
		if err != nil {
			dropped++
			fmt.Fprintf(os.Stderr, "  dropping record: %v\n", err)
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, dropped
}

func (n *Normalizer) normalize(rec source.Record) (Mention, error) {
	if rec.ProductID == "" {
		return Mention{}, &MalformedRecordError{Source: rec.Source, Reason: "missing product reference"}
	}
	switch rec.Kind {
	case source.KindComplaint, source.KindPraise, source.KindRecall, source.KindRepairScore:
	default:
		return Mention{}, &MalformedRecordError{Source: rec.Source, Reason: fmt.Sprintf("unknown kind %q", rec.Kind)}
	}
	if rec.PostedAt.IsZero() {
		return Mention{}, &MalformedRecordError{Source: rec.Source, Reason: "missing timestamp"}
	}
	if rec.Kind == source.KindRepairScore && (rec.RepairScore < 1 || rec.RepairScore > 10) {
		return Mention{}, &MalformedRecordError{Source: rec.Source, Reason: fmt.Sprintf("repair score %d out of range", rec.RepairScore)}
	}

	text := rec.Title
	if text == "" {
		text = rec.Text
	}
	if text == "" {
		return Mention{}, &MalformedRecordError{Source: rec.Source, Reason: "empty text"}
	}

	weight, ok := n.weights[rec.Source]
	if !ok {
		weight = 1.0
	}

	collected := rec.CollectedAt
	if collected.IsZero() {
		collected = rec.PostedAt
	}

	return Mention{
		ProductID:    rec.ProductID,
		Source:       rec.Source,
		Kind:         rec.Kind,
		ExternalID:   rec.ExternalID,
		Weight:       weight,
		Text:         text,
		URL:          rec.URL,
		SeverityHint: rec.SeverityHint,
		RepairScore:  rec.RepairScore,
		PostedAt:     rec.PostedAt.UTC(),
		CollectedAt:  collected.UTC(),
	}, nil
}
