package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/internal/config"
	"github.com/alexhrsu/monitor-reliability-feed/internal/ingest"
	"github.com/alexhrsu/monitor-reliability-feed/internal/scheduler"
	"github.com/alexhrsu/monitor-reliability-feed/internal/store"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/alert"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/server"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// app bundles the wired components every command needs.
type app struct {
	cfg       *config.Config
	db        *store.SQLiteStore
	engine    *reliability.Engine
	collector *ingest.Collector
	sources   []source.Source
}

func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	engine, err := reliability.NewEngine(cfg.Engine)
	if err != nil {
		db.Close()
		return nil, err
	}

	sources := buildSources(cfg)
	normalizer := reliability.NewNormalizer(cfg.Engine.SourceWeights)
	collector := ingest.NewCollector(db, sources, normalizer)

	return &app{
		cfg:       cfg,
		db:        db,
		engine:    engine,
		collector: collector,
		sources:   sources,
	}, nil
}

func (a *app) Close() { a.db.Close() }

func buildSources(cfg *config.Config) []source.Source {
	var sources []source.Source

	if cfg.Sources.Reddit.Enabled && cfg.Sources.Reddit.ClientID != "" {
		sources = append(sources, source.NewReddit(
			cfg.Sources.Reddit.ClientID,
			cfg.Sources.Reddit.ClientSecret,
			cfg.Sources.Reddit.Subreddits,
		))
	} else {
		// Without Reddit credentials, fall back to the deterministic
		// offline collector so reports stay demonstrable.
		sources = append(sources, source.NewMock())
	}
	if cfg.Sources.CPSC.Enabled {
		sources = append(sources, source.NewCPSC())
	}
	if cfg.Sources.IFixit.Enabled {
		sources = append(sources, source.NewIFixit())
	}
	if cfg.Sources.RSS.Enabled && len(cfg.Sources.RSS.Feeds) > 0 {
		feeds := make([]source.RSSFeed, len(cfg.Sources.RSS.Feeds))
		for i, f := range cfg.Sources.RSS.Feeds {
			feeds[i] = source.RSSFeed{Name: f.Name, URL: f.URL}
		}
		sources = append(sources, source.NewRSS(feeds))
	}

	return sources
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runSeed() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := store.Seed(context.Background(), a.db); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	fmt.Fprintf(os.Stderr, "seeded %d products\n", len(store.SeedProducts))
	return nil
}

func runCollect(filterSources []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources := a.sources
	if len(filterSources) > 0 {
		known := make(map[string]bool)
		for _, st := range source.AllSourceTypes() {
			known[string(st)] = true
		}
		wanted := make(map[string]bool)
		for _, s := range filterSources {
			name := strings.ToLower(strings.TrimSpace(s))
			if !known[name] {
				return fmt.Errorf("unknown source %q (valid: %s)", s, joinSourceTypes())
			}
			wanted[name] = true
		}
		sources = nil
		for _, s := range a.sources {
			if wanted[string(s.Name())] {
				sources = append(sources, s)
			}
		}
		if len(sources) == 0 {
			return fmt.Errorf("no matching sources for: %s", strings.Join(filterSources, ", "))
		}
		normalizer := reliability.NewNormalizer(a.cfg.Engine.SourceWeights)
		a.collector = ingest.NewCollector(a.db, sources, normalizer)
	}

	res, err := a.collector.CollectAll(context.Background())
	if err != nil {
		return err
	}
	for _, msg := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "\ntotal: %d new mentions from %d sources (%d dropped)\n",
		res.Inserted, len(sources), res.Dropped)
	return nil
}

func runReport(productID string, jsonOutput bool) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	product, err := a.db.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(ctx, a.db, *product)
	if err != nil {
		return err
	}
	category, err := loadCategorySnapshots(ctx, a.db, product.Category)
	if err != nil {
		return err
	}

	report := a.engine.Report(snap, category, time.Now())

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	rel := report.Reliability
	fmt.Printf("%s (%s)\n", report.Product.Name, report.Product.ID)
	if rel.Score != nil {
		fmt.Printf("  score:      %d/100 (%s)\n", *rel.Score, rel.Grade)
	} else {
		fmt.Printf("  score:      insufficient data\n")
	}
	fmt.Printf("  confidence: %s (%d data points, %d sources)\n",
		rel.Confidence, rel.DataPoints, rel.SourceCount)
	fmt.Printf("  trend:      %s\n", rel.Trend)

	if len(report.Issues) > 0 {
		fmt.Println("\nknown issues:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  SEVERITY\tMENTIONS\tAFFECTED\tISSUE")
		for _, iss := range report.Issues {
			fmt.Fprintf(w, "  %s\t%d\t%d%%\t%s\n",
				iss.Severity, iss.Mentions, iss.AffectedPercentage, iss.Title)
		}
		w.Flush()
	}

	if len(report.Positives) > 0 {
		fmt.Println("\npraised for:")
		for _, p := range report.Positives {
			fmt.Printf("  - %s (%d mentions)\n", p.Title, p.Mentions)
		}
	}

	if report.Comparison != nil {
		if report.Comparison.CategoryAverage != nil {
			fmt.Printf("\ncategory average: %d\n", *report.Comparison.CategoryAverage)
		}
		if len(report.Comparison.BetterAlternatives) > 0 {
			fmt.Println("better alternatives:")
			for _, alt := range report.Comparison.BetterAlternatives {
				fmt.Printf("  - %s (%s)\n", alt.Name, alt.ID)
			}
		}
	}
	return nil
}

func runRanking(category string, n int, avoid bool) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snapshots, err := loadCategorySnapshots(context.Background(), a.db, category)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("unknown category %q", category)
	}

	scored := a.engine.ScoreAll(snapshots)
	var ranked []reliability.ProductReliability
	if avoid {
		ranked = a.engine.AvoidProducts(scored, n)
	} else {
		ranked = a.engine.TopProducts(scored, n)
	}

	if len(ranked) == 0 {
		fmt.Println("no scoreable products (try collecting data first: relfeed collect)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tGRADE\tCONFIDENCE\tDATA\tPRODUCT")
	for _, p := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			p.Score.Score, p.Score.Grade, p.Score.Confidence,
			p.Score.DataPoints, p.Product.Name)
	}
	return w.Flush()
}

func runCompare(ids []string, jsonOutput bool) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	snapshots := make(map[string]reliability.Snapshot, len(ids))
	for _, id := range ids {
		product, err := a.db.GetProduct(ctx, id)
		if err != nil {
			continue
		}
		snap, err := loadSnapshot(ctx, a.db, *product)
		if err != nil {
			return err
		}
		snapshots[id] = snap
	}

	result := a.engine.Compare(ids, snapshots, time.Now())

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tGRADE\tCONFIDENCE\tISSUES\tPRODUCT")
	for _, rep := range result.Products {
		score := "n/a"
		if rep.Reliability.Score != nil {
			score = fmt.Sprintf("%d", *rep.Reliability.Score)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			score, rep.Reliability.Grade, rep.Reliability.Confidence,
			len(rep.Issues), rep.Product.Name)
	}
	w.Flush()

	if result.Recommended != nil {
		fmt.Printf("\nrecommended: %s (%s)\n", result.Recommended.Name, result.Recommended.ID)
	}
	for _, id := range result.NotFound {
		fmt.Printf("not found: %s\n", id)
	}
	return nil
}

func runTrending(category string, n int) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snapshots, err := loadCategorySnapshots(context.Background(), a.db, category)
	if err != nil {
		return err
	}

	trending := a.engine.TrendingIssues(snapshots, time.Now(), n)
	if len(trending) == 0 {
		fmt.Println("no trending issues found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROWTH\tSEVERITY\tPRODUCT\tISSUE")
	for _, t := range trending {
		fmt.Fprintf(w, "+%d\t%s\t%s\t%s\n", t.Growth, t.Severity, t.ProductName, t.Title)
	}
	return w.Flush()
}

func runServe(port int) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	srv := server.New(a.db, a.engine, a.collector, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Server.Port
	}

	alertMgr := buildAlertManager(a.cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(a.db, a.collector, a.engine, alertMgr,
		a.cfg.Schedule.ParseCollectInterval(),
		a.cfg.Schedule.ParseRescoreInterval(),
		a.cfg.Alerts.ScoreDropThreshold,
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(a.db, a.engine, a.collector, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}

func joinSourceTypes() string {
	types := source.AllSourceTypes()
	names := make([]string, len(types))
	for i, st := range types {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func loadSnapshot(ctx context.Context, db store.Store, product reliability.ProductRef) (reliability.Snapshot, error) {
	mentions, err := db.ListMentions(ctx, product.ID, store.MentionListOpts{})
	if err != nil {
		return reliability.Snapshot{}, err
	}
	return reliability.Snapshot{Product: product, Mentions: mentions}, nil
}

func loadCategorySnapshots(ctx context.Context, db store.Store, category string) ([]reliability.Snapshot, error) {
	products, err := db.ListProducts(ctx, store.ProductListOpts{Category: category, Limit: 1000})
	if err != nil {
		return nil, err
	}
	snapshots := make([]reliability.Snapshot, 0, len(products))
	for i := range products {
		snap, err := loadSnapshot(ctx, db, products[i])
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}
