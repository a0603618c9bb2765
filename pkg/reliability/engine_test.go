package reliability

import (
	"testing"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func complaint(text string, weight float64, daysAgo int) Mention {
	return Mention{
		ProductID: "test-product",
		Source:    source.SourceReddit,
		Kind:      source.KindComplaint,
		Weight:    weight,
		Text:      text,
		PostedAt:  testNow.AddDate(0, 0, -daysAgo),
	}
}

func praise(text string, weight float64, daysAgo int) Mention {
	m := complaint(text, weight, daysAgo)
	m.Kind = source.KindPraise
	return m
}

func recall(text string, daysAgo int) Mention {
	m := complaint(text, 3.0, daysAgo)
	m.Source = source.SourceCPSC
	m.Kind = source.KindRecall
	m.SeverityHint = "critical"
	return m
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.ClusterThreshold = 1.5
	if _, err := NewEngine(p); err == nil {
		t.Fatal("expected error for cluster threshold above 1")
	}

	p = DefaultParams()
	p.Grades = []GradeCutoff{{Min: 50, Grade: "C"}, {Min: 90, Grade: "A+"}}
	if _, err := NewEngine(p); err == nil {
		t.Fatal("expected error for non-descending grade cutoffs")
	}
}
