package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/internal/ingest"
	"github.com/alexhrsu/monitor-reliability-feed/internal/store"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/alert"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
)

// Scheduler runs periodic collection and rescoring.
type Scheduler struct {
	store      store.Store
	collector  *ingest.Collector
	engine     *reliability.Engine
	alertMgr   *alert.Manager
	collectInt time.Duration
	rescoreInt time.Duration
	dropThresh int
}

// New creates a new scheduler.
func New(
	s store.Store,
	collector *ingest.Collector,
	engine *reliability.Engine,
	alertMgr *alert.Manager,
	collectInt, rescoreInt time.Duration,
	dropThresh int,
) *Scheduler {
	if collectInt == 0 {
		collectInt = 6 * time.Hour
	}
	if rescoreInt == 0 {
		rescoreInt = 12 * time.Hour
	}
	if dropThresh == 0 {
		dropThresh = 10
	}
	return &Scheduler{
		store:      s,
		collector:  collector,
		engine:     engine,
		alertMgr:   alertMgr,
		collectInt: collectInt,
		rescoreInt: rescoreInt,
		dropThresh: dropThresh,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	collectTicker := time.NewTicker(s.collectInt)
	rescoreTicker := time.NewTicker(s.rescoreInt)
	defer collectTicker.Stop()
	defer rescoreTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial collection...")
	s.collect(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial rescoring...")
	s.rescoreAndAlert(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (collect every %s, rescore every %s)\n",
		s.collectInt, s.rescoreInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-collectTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: collecting...")
			s.collect(ctx)
		case <-rescoreTicker.C:
			fmt.Fprintln(os.Stderr, "scheduler: rescoring...")
			s.rescoreAndAlert(ctx)
		}
	}
}

func (s *Scheduler) collect(ctx context.Context) {
	res, err := s.collector.CollectAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  collection error: %v\n", err)
		return
	}
	for _, msg := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "  total: %d new mentions (%d dropped)\n", res.Inserted, res.Dropped)
}

// rescoreAndAlert recomputes every product's score, records it in the score
// history, and notifies on recalls, critical issues, and sharp score drops.
func (s *Scheduler) rescoreAndAlert(ctx context.Context) {
	products, err := s.store.ListProducts(ctx, store.ProductListOpts{Limit: 1000})
	if err != nil {
		fmt.Fprintf(os.Stderr, "  rescore error: %v\n", err)
		return
	}

	for i := range products {
		mentions, err := s.store.ListMentions(ctx, products[i].ID, store.MentionListOpts{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", products[i].ID, err)
			continue
		}

		res := s.engine.Score(mentions)
		if !res.Valid {
			continue
		}

		prev, err := s.store.LatestScoreSnapshot(ctx, products[i].ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", products[i].ID, err)
			continue
		}

		s.notify(ctx, products[i], res, s.engine.Issues(mentions), prev)

		snap := &store.ScoreSnapshot{
			ProductID:  products[i].ID,
			Score:      res.Score,
			Grade:      res.Grade,
			Confidence: string(res.Confidence),
			DataPoints: res.DataPoints,
		}
		if err := s.store.AddScoreSnapshot(ctx, snap); err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", products[i].ID, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: score %d (%s)\n", products[i].ID, res.Score, res.Grade)
	}
}

func (s *Scheduler) notify(ctx context.Context, product reliability.ProductRef,
	res reliability.ScoreResult, issues []reliability.Issue, prev *store.ScoreSnapshot) {

	if !s.alertMgr.HasNotifiers() {
		return
	}

	// New critical issues (recalls included) alert once, on the pass where
	// the score first reflects them; afterwards the previous snapshot
	// already carries the lowered score.
	var critical []reliability.Issue
	hasRecall := false
	for _, iss := range issues {
		if iss.Severity == reliability.SeverityCritical {
			critical = append(critical, iss)
			if iss.HasRecall {
				hasRecall = true
			}
		}
	}

	dropped := prev != nil && prev.Score-res.Score >= s.dropThresh
	firstCritical := len(critical) > 0 && (prev == nil || prev.Score > res.Score)

	var n *alert.Notification
	switch {
	case hasRecall && firstCritical:
		n = &alert.Notification{
			Kind:    alert.KindRecall,
			Product: product,
			Title:   fmt.Sprintf("Recall affecting %s", product.Name),
			Body:    "An official safety recall is affecting this product's reliability score.",
			Score:   res.Score,
			Grade:   res.Grade,
			Issues:  critical,
		}
	case firstCritical:
		n = &alert.Notification{
			Kind:    alert.KindCriticalIssue,
			Product: product,
			Title:   fmt.Sprintf("Critical issue reported for %s", product.Name),
			Body:    fmt.Sprintf("%d critical issue(s) surfaced in the latest data.", len(critical)),
			Score:   res.Score,
			Grade:   res.Grade,
			Issues:  critical,
		}
	case dropped:
		n = &alert.Notification{
			Kind:    alert.KindScoreDrop,
			Product: product,
			Title:   fmt.Sprintf("Reliability score drop for %s", product.Name),
			Body:    fmt.Sprintf("Score fell from %d to %d since the last check.", prev.Score, res.Score),
			Score:   res.Score,
			Grade:   res.Grade,
			Issues:  issues,
		}
	default:
		return
	}

	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		fmt.Fprintf(os.Stderr, "  alert error for %s: %v\n", product.ID, err)
		return
	}
	fmt.Fprintf(os.Stderr, "  alerted: %s (%s)\n", product.ID, n.Kind)
}
