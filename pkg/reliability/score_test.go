package reliability

import (
	"fmt"
	"testing"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

func TestScoreZeroMentions(t *testing.T) {
	e := testEngine(t)

	res := e.Score(nil)
	if res.Valid {
		t.Error("score should be invalid with no data")
	}
	if res.Confidence != ConfidenceNone {
		t.Errorf("confidence = %s, want none", res.Confidence)
	}
	if res.DataPoints != 0 {
		t.Errorf("data points = %d, want 0", res.DataPoints)
	}
}

func TestScoreStaysInRange(t *testing.T) {
	e := testEngine(t)

	cases := []struct {
		name     string
		mentions []Mention
	}{
		{"praise only", []Mention{
			praise("Stunning colors, love this panel", 1.0, 5),
			praise("Best monitor I have owned", 1.0, 8),
		}},
		{"complaints only", []Mention{
			complaint("Dead pixels on arrival, returning", 1.0, 10),
			complaint("Dead pixels on arrival, returning", 1.0, 12),
			complaint("Flickering at 240Hz issue", 1.0, 15),
			complaint("Flickering at 240Hz issue", 1.0, 18),
		}},
		{"recall heavy", []Mention{
			recall("Recall: fire hazard in power supply", 30),
			recall("Recall: shock hazard from adapter", 45),
			recall("Recall: fire risk in stand wiring", 50),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Score(tc.mentions)
			if !res.Valid {
				t.Fatal("expected a valid score")
			}
			if res.Score < 0 || res.Score > 100 {
				t.Errorf("score = %d, out of [0,100]", res.Score)
			}
		})
	}
}

func TestScoreRecallCeiling(t *testing.T) {
	e := testEngine(t)

	// Otherwise-excellent product: heavy praise, a single recall.
	mentions := []Mention{recall("Recall: fire hazard in power supply", 30)}
	for i := 0; i < 50; i++ {
		mentions = append(mentions, praise(fmt.Sprintf("Stunning panel, love it %d", i), 1.0, i))
	}

	res := e.Score(mentions)
	if res.Score > e.params.Score.RecallCeiling {
		t.Errorf("score = %d, want <= %d with a recall present", res.Score, e.params.Score.RecallCeiling)
	}

	issues := e.Issues(mentions)
	foundCritical := false
	for _, iss := range issues {
		if iss.Severity == SeverityCritical {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Error("expected a critical issue sourced from the recall")
	}
}

func TestScorePenalizedButPositive(t *testing.T) {
	e := testEngine(t)

	var mentions []Mention
	for i := 0; i < 10; i++ {
		mentions = append(mentions, complaint("Flickering at 240Hz issue", 2.0, i*3))
	}
	for i := 0; i < 30; i++ {
		mentions = append(mentions, praise(fmt.Sprintf("Great panel, worth it %d", i), 1.0, i*2))
	}

	res := e.Score(mentions)
	if !res.Valid {
		t.Fatal("expected a valid score")
	}
	if res.Score <= 0 {
		t.Errorf("score = %d, want > 0", res.Score)
	}
	if res.Score >= 100 {
		t.Errorf("score = %d, want penalized below 100", res.Score)
	}
	if res.Breakdown.ComplaintPenalty <= 0 {
		t.Error("expected a complaint penalty")
	}
	if res.Breakdown.IssuePenalty <= 0 {
		t.Error("expected an issue penalty")
	}
}

func TestScoreRepairabilityAdjustment(t *testing.T) {
	e := testEngine(t)

	base := []Mention{
		complaint("Dead pixels on arrival, returning", 1.0, 10),
		complaint("Dead pixels on arrival, returning", 1.0, 12),
	}

	repairable := append([]Mention{}, base...)
	repairable = append(repairable, Mention{
		ProductID:   "test-product",
		Source:      source.SourceIFixit,
		Kind:        source.KindRepairScore,
		Weight:      2.0,
		Text:        "Repairability 9/10",
		RepairScore: 9,
		PostedAt:    testNow.AddDate(0, 0, -5),
	})

	plain := e.Score(base)
	adjusted := e.Score(repairable)
	if adjusted.Score <= plain.Score {
		t.Errorf("high repairability should raise the score: %d vs %d", adjusted.Score, plain.Score)
	}
	if adjusted.Breakdown.RepairAdjustment <= 0 {
		t.Errorf("repair adjustment = %v, want positive for 9/10", adjusted.Breakdown.RepairAdjustment)
	}
}

func TestGradeMonotonic(t *testing.T) {
	e := testEngine(t)

	gradeRank := map[string]int{
		"F": 0, "D": 1, "C": 2, "C+": 3, "B": 4, "B+": 5, "A": 6, "A+": 7,
	}

	prev := -1
	for s := 0; s <= 100; s++ {
		g := e.grade(s)
		rank, ok := gradeRank[g]
		if !ok {
			t.Fatalf("grade(%d) = %q, unknown grade", s, g)
		}
		if rank < prev {
			t.Fatalf("grade(%d) = %q ranks below grade(%d)", s, g, s-1)
		}
		prev = rank
	}

	if g := e.grade(90); g != "A+" {
		t.Errorf("grade(90) = %q, want A+", g)
	}
	if g := e.grade(39); g != "F" {
		t.Errorf("grade(39) = %q, want F", g)
	}
}

func TestConfidenceIgnoresScoreValue(t *testing.T) {
	e := testEngine(t)

	cases := []struct {
		name    string
		points  int
		sources int
		want    Confidence
	}{
		{"no data", 0, 0, ConfidenceNone},
		{"thin single source", 5, 1, ConfidenceLow},
		{"thin two sources", 50, 2, ConfidenceLow},
		{"plenty but one source", 600, 1, ConfidenceLow},
		{"medium", 200, 2, ConfidenceMedium},
		{"high", 600, 3, ConfidenceHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.confidence(tc.points, tc.sources); got != tc.want {
				t.Errorf("confidence(%d, %d) = %s, want %s", tc.points, tc.sources, got, tc.want)
			}
		})
	}
}

func TestConfidenceLowOnExtremeSingleComplaint(t *testing.T) {
	e := testEngine(t)

	res := e.Score([]Mention{complaint("Worst monitor ever, avoid, broken on arrival", 1.0, 1)})
	if res.Confidence != ConfidenceLow {
		t.Errorf("confidence = %s, want low for a single data point", res.Confidence)
	}
}
