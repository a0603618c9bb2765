package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
)

// ScoreSnapshot records a point-in-time score for a product.
type ScoreSnapshot struct {
	ID         int64     `db:"id"`
	ProductID  string    `db:"product_id"`
	Score      int       `db:"score"`
	Grade      string    `db:"grade"`
	Confidence string    `db:"confidence"`
	DataPoints int       `db:"data_points"`
	CheckedAt  time.Time `db:"checked_at"`
}

// ProductListOpts controls product listing.
type ProductListOpts struct {
	Category string
	// Search matches against name and brand, case-insensitively.
	Search string
	Limit  int
}

// MentionListOpts controls mention listing.
type MentionListOpts struct {
	Since time.Time
	Limit int
}

// Store is the persistence interface.
type Store interface {
	UpsertProduct(ctx context.Context, p *reliability.ProductRef) error
	UpsertProducts(ctx context.Context, products []reliability.ProductRef) error
	GetProduct(ctx context.Context, id string) (*reliability.ProductRef, error)
	ListProducts(ctx context.Context, opts ProductListOpts) ([]reliability.ProductRef, error)
	ListCategories(ctx context.Context) ([]string, error)

	InsertMentions(ctx context.Context, mentions []reliability.Mention) (int, error)
	ListMentions(ctx context.Context, productID string, opts MentionListOpts) ([]reliability.Mention, error)
	CountMentionsBySource(ctx context.Context) (map[string]int, error)

	AddScoreSnapshot(ctx context.Context, snap *ScoreSnapshot) error
	LatestScoreSnapshot(ctx context.Context, productID string) (*ScoreSnapshot, error)
	ScoreHistory(ctx context.Context, productID string, since time.Time) ([]ScoreSnapshot, error)

	Close() error
}

// ErrNotFound marks a lookup that matched nothing.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProduct(ctx context.Context, p *reliability.ProductRef) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, brand, category)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			brand = excluded.brand,
			category = excluded.category
	`, p.ID, p.Name, p.Brand, p.Category)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertProducts(ctx context.Context, products []reliability.ProductRef) error {
	for i := range products {
		if err := s.UpsertProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*reliability.ProductRef, error) {
	var p reliability.ProductRef
	err := s.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, opts ProductListOpts) ([]reliability.ProductRef, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	builder := sq.Select("*").From("products")
	if opts.Category != "" {
		builder = builder.Where(sq.Eq{"category": opts.Category})
	}
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"name": pattern},
			sq.Like{"brand": pattern},
		})
	}
	builder = builder.OrderBy("name").Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product query: %w", err)
	}

	var products []reliability.ProductRef
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.SelectContext(ctx, &categories,
		"SELECT DISTINCT category FROM products WHERE category != '' ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// InsertMentions stores a batch, skipping records already seen from the same
// source. Returns the number of newly inserted rows.
func (s *SQLiteStore) InsertMentions(ctx context.Context, mentions []reliability.Mention) (int, error) {
	inserted := 0
	for i := range mentions {
		m := &mentions[i]
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO mentions (product_id, source, kind, external_id, weight, text, url, severity_hint, repair_score, posted_at, collected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source, external_id) DO NOTHING
		`, m.ProductID, m.Source, m.Kind, m.ExternalID, m.Weight, m.Text,
			m.URL, m.SeverityHint, m.RepairScore, m.PostedAt, m.CollectedAt)
		if err != nil {
			return inserted, fmt.Errorf("insert mention %s/%s: %w", m.Source, m.ExternalID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (s *SQLiteStore) ListMentions(ctx context.Context, productID string, opts MentionListOpts) ([]reliability.Mention, error) {
	builder := sq.Select("*").From("mentions").Where(sq.Eq{"product_id": productID})
	if !opts.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"posted_at": opts.Since})
	}
	builder = builder.OrderBy("posted_at DESC")
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build mention query: %w", err)
	}

	var mentions []reliability.Mention
	if err := s.db.SelectContext(ctx, &mentions, query, args...); err != nil {
		return nil, fmt.Errorf("list mentions %s: %w", productID, err)
	}
	return mentions, nil
}

func (s *SQLiteStore) CountMentionsBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source, COUNT(*) as cnt FROM mentions GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("count mentions by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[src] = cnt
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) AddScoreSnapshot(ctx context.Context, snap *ScoreSnapshot) error {
	if snap.CheckedAt.IsZero() {
		snap.CheckedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO score_history (product_id, score, grade, confidence, data_points, checked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ProductID, snap.Score, snap.Grade, snap.Confidence, snap.DataPoints, snap.CheckedAt)
	if err != nil {
		return fmt.Errorf("add score snapshot %s: %w", snap.ProductID, err)
	}
	snap.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) LatestScoreSnapshot(ctx context.Context, productID string) (*ScoreSnapshot, error) {
	var snap ScoreSnapshot
	err := s.db.GetContext(ctx, &snap,
		"SELECT * FROM score_history WHERE product_id = ? ORDER BY checked_at DESC LIMIT 1",
		productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("score snapshot %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest score snapshot %s: %w", productID, err)
	}
	return &snap, nil
}

func (s *SQLiteStore) ScoreHistory(ctx context.Context, productID string, since time.Time) ([]ScoreSnapshot, error) {
	var snaps []ScoreSnapshot
	err := s.db.SelectContext(ctx, &snaps,
		"SELECT * FROM score_history WHERE product_id = ? AND checked_at >= ? ORDER BY checked_at",
		productID, since)
	if err != nil {
		return nil, fmt.Errorf("score history %s: %w", productID, err)
	}
	return snaps, nil
}
