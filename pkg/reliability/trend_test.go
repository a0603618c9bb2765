package reliability

import (
	"fmt"
	"testing"
)

// windowMentions spreads count mentions evenly through the window ending
// daysAgoEnd days before testNow and starting 89 days earlier.
func windowMentions(kind string, count, daysAgoEnd int) []Mention {
	var out []Mention
	for i := 0; i < count; i++ {
		day := daysAgoEnd + 1 + (i % 88)
		text := fmt.Sprintf("Great panel, worth it %d", i)
		m := praise(text, 1.0, day)
		if kind == "complaint" {
			m = complaint(fmt.Sprintf("Flickering at 240Hz issue %d", i), 1.0, day)
		}
		out = append(out, m)
	}
	return out
}

func TestTrendUnknownOnThinWindows(t *testing.T) {
	e := testEngine(t)

	// Both windows populated, but below the confidence floor.
	mentions := append(windowMentions("praise", 20, 0), windowMentions("praise", 20, 90)...)

	res := e.Trend(mentions, testNow)
	if res.Direction != TrendUnknown {
		t.Errorf("direction = %s, want unknown for thin windows", res.Direction)
	}
}

func TestTrendUnknownOnEmptyPriorWindow(t *testing.T) {
	e := testEngine(t)

	mentions := windowMentions("praise", 150, 0)
	res := e.Trend(mentions, testNow)
	if res.Direction != TrendUnknown {
		t.Errorf("direction = %s, want unknown with empty prior window", res.Direction)
	}
}

func TestTrendStableOnIdenticalWindows(t *testing.T) {
	e := testEngine(t)

	mentions := append(windowMentions("praise", 150, 0), windowMentions("praise", 150, 90)...)
	res := e.Trend(mentions, testNow)
	if res.Direction != TrendStable {
		t.Errorf("direction = %s (delta %d), want stable", res.Direction, res.Delta)
	}
}

func TestTrendDeclining(t *testing.T) {
	e := testEngine(t)

	// Prior window clean, recent window full of complaints.
	recent := windowMentions("complaint", 150, 0)
	prior := windowMentions("praise", 150, 90)

	res := e.Trend(append(recent, prior...), testNow)
	if res.Direction != TrendDeclining {
		t.Errorf("direction = %s (recent %d, prior %d), want declining",
			res.Direction, res.RecentScore, res.PriorScore)
	}
	if res.Delta >= 0 {
		t.Errorf("delta = %d, want negative", res.Delta)
	}
}

func TestTrendImproving(t *testing.T) {
	e := testEngine(t)

	recent := windowMentions("praise", 150, 0)
	prior := windowMentions("complaint", 150, 90)

	res := e.Trend(append(recent, prior...), testNow)
	if res.Direction != TrendImproving {
		t.Errorf("direction = %s (recent %d, prior %d), want improving",
			res.Direction, res.RecentScore, res.PriorScore)
	}
}
