package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProductRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := reliability.ProductRef{ID: "lg-27gp950-b", Name: "LG 27GP950-B", Brand: "LG", Category: "monitors"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetProduct(ctx, "lg-27gp950-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != p {
		t.Errorf("got %+v, want %+v", *got, p)
	}

	// Upsert replaces in place.
	p.Name = "LG UltraGear 27GP950-B"
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = s.GetProduct(ctx, "lg-27gp950-b")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Name != "LG UltraGear 27GP950-B" {
		t.Errorf("name = %q after upsert", got.Name)
	}

	if _, err := s.GetProduct(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing product error = %v, want ErrNotFound", err)
	}
}

func TestListProductsFiltering(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := Seed(ctx, s); err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := s.ListProducts(ctx, ProductListOpts{Category: "monitors"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(SeedProducts) {
		t.Errorf("got %d products, want %d", len(all), len(SeedProducts))
	}

	lg, err := s.ListProducts(ctx, ProductListOpts{Search: "LG"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(lg) != 3 {
		t.Errorf("got %d LG products, want 3", len(lg))
	}

	none, err := s.ListProducts(ctx, ProductListOpts{Category: "toasters"})
	if err != nil {
		t.Fatalf("empty category: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d products in empty category", len(none))
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 1 || categories[0] != "monitors" {
		t.Errorf("categories = %v, want [monitors]", categories)
	}
}

func mention(productID, externalID, text string, postedAt time.Time) reliability.Mention {
	return reliability.Mention{
		ProductID:   productID,
		Source:      source.SourceReddit,
		Kind:        source.KindComplaint,
		ExternalID:  externalID,
		Weight:      1.0,
		Text:        text,
		PostedAt:    postedAt,
		CollectedAt: postedAt,
	}
}

func TestInsertMentionsDeduplicates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := reliability.ProductRef{ID: "gigabyte-m32u", Name: "Gigabyte M32U", Category: "monitors"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	batch := []reliability.Mention{
		mention("gigabyte-m32u", "post-1", "Dead pixels on mine", now.AddDate(0, 0, -3)),
		mention("gigabyte-m32u", "post-2", "Backlight bleed issue", now.AddDate(0, 0, -2)),
	}

	n, err := s.InsertMentions(ctx, batch)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	// Re-collecting the same posts must not duplicate them.
	n, err = s.InsertMentions(ctx, batch)
	if err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if n != 0 {
		t.Errorf("re-inserted = %d, want 0", n)
	}

	mentions, err := s.ListMentions(ctx, "gigabyte-m32u", MentionListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mentions) != 2 {
		t.Errorf("got %d mentions, want 2", len(mentions))
	}
	// Newest first.
	if mentions[0].ExternalID != "post-2" {
		t.Errorf("first mention = %s, want post-2", mentions[0].ExternalID)
	}

	counts, err := s.CountMentionsBySource(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["reddit"] != 2 {
		t.Errorf("reddit count = %d, want 2", counts["reddit"])
	}
}

func TestListMentionsSince(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := reliability.ProductRef{ID: "benq-ex3210u", Name: "BenQ MOBIUZ EX3210U", Category: "monitors"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	batch := []reliability.Mention{
		mention("benq-ex3210u", "old", "HDR looks washed out, defect?", now.AddDate(0, 0, -100)),
		mention("benq-ex3210u", "new", "Flickering issue at 144Hz", now.AddDate(0, 0, -5)),
	}
	if _, err := s.InsertMentions(ctx, batch); err != nil {
		t.Fatal(err)
	}

	recent, err := s.ListMentions(ctx, "benq-ex3210u", MentionListOpts{Since: now.AddDate(0, 0, -30)})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 || recent[0].ExternalID != "new" {
		t.Errorf("got %+v, want only the recent mention", recent)
	}
}

func TestScoreHistory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := reliability.ProductRef{ID: "dell-aw3423dwf", Name: "Dell Alienware AW3423DWF", Category: "monitors"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LatestScoreSnapshot(ctx, "dell-aw3423dwf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty history error = %v, want ErrNotFound", err)
	}

	base := time.Now().UTC().Truncate(time.Second).Add(-48 * time.Hour)
	for i, score := range []int{82, 78, 74} {
		snap := &ScoreSnapshot{
			ProductID:  "dell-aw3423dwf",
			Score:      score,
			Grade:      "B",
			Confidence: "medium",
			DataPoints: 300 + i,
			CheckedAt:  base.Add(time.Duration(i) * 12 * time.Hour),
		}
		if err := s.AddScoreSnapshot(ctx, snap); err != nil {
			t.Fatalf("add snapshot: %v", err)
		}
		if snap.ID == 0 {
			t.Error("snapshot id not populated")
		}
	}

	latest, err := s.LatestScoreSnapshot(ctx, "dell-aw3423dwf")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Score != 74 {
		t.Errorf("latest score = %d, want 74", latest.Score)
	}

	history, err := s.ScoreHistory(ctx, "dell-aw3423dwf", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("got %d snapshots, want 3", len(history))
	}
	if history[0].Score != 82 {
		t.Errorf("oldest first: got %d, want 82", history[0].Score)
	}
}
