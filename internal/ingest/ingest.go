package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/alexhrsu/monitor-reliability-feed/internal/store"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

// Collector pulls raw records for every tracked product from every source,
// normalizes them, and stores the resulting mentions.
type Collector struct {
	store      store.Store
	sources    []source.Source
	normalizer *reliability.Normalizer
}

// NewCollector creates a collector.
func NewCollector(s store.Store, sources []source.Source, n *reliability.Normalizer) *Collector {
	return &Collector{store: s, sources: sources, normalizer: n}
}

// Result summarizes one collection pass.
type Result struct {
	// PerSource counts newly stored mentions by source name.
	PerSource map[string]int `json:"per_source"`
	Inserted  int            `json:"inserted"`
	Dropped   int            `json:"dropped"`
	Errors    []string       `json:"errors,omitempty"`
}

// CollectAll runs one collection pass over all products and sources. Source
// failures are reported per source and never abort the pass.
func (c *Collector) CollectAll(ctx context.Context) (*Result, error) {
	products, err := c.store.ListProducts(ctx, store.ProductListOpts{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	res := &Result{PerSource: make(map[string]int)}
	for _, src := range c.sources {
		stored := 0
		for i := range products {
			p := source.Product{ID: products[i].ID, Name: products[i].Name, Brand: products[i].Brand}
			records, err := src.Fetch(ctx, p)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s %s: %v", src.Name(), p.ID, err))
				continue
			}

			mentions, dropped := c.normalizer.Normalize(records)
			res.Dropped += dropped

			n, err := c.store.InsertMentions(ctx, mentions)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s %s store: %v", src.Name(), p.ID, err))
				continue
			}
			stored += n
		}
		res.PerSource[string(src.Name())] = stored
		res.Inserted += stored
		fmt.Fprintf(os.Stderr, "  %s: %d new mentions\n", src.Name(), stored)
	}
	return res, nil
}
