package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSFeed is a single feed to poll.
type RSSFeed struct {
	Name string
	URL  string
}

// RSS collects product chatter from review-site feeds. Feed items are kept
// only when they mention the product being fetched.
type RSS struct {
	feeds  []RSSFeed
	parser *gofeed.Parser
}

// NewRSS creates a new RSS collector.
func NewRSS(feeds []RSSFeed) *RSS {
	return &RSS{
		feeds:  feeds,
		parser: gofeed.NewParser(),
	}
}

func (r *RSS) Name() SourceType { return SourceRSS }

func (r *RSS) Fetch(ctx context.Context, product Product) ([]Record, error) {
	var records []Record
	now := time.Now().UTC()

	for _, feed := range r.feeds {
		parsed, err := r.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  rss %s error: %v\n", feed.Name, err)
			continue
		}

		for _, item := range parsed.Items {
			text := item.Title + " " + item.Description
			if !MentionsProduct(text, product) {
				continue
			}
			kind := ClassifySentiment(text)
			if kind == "" {
				continue
			}

			id := item.GUID
			if id == "" {
				id = item.Link
			}

			published := now
			if item.PublishedParsed != nil {
				published = item.PublishedParsed.UTC()
			}

			records = append(records, Record{
				ProductID:   product.ID,
				Source:      SourceRSS,
				Kind:        kind,
				ExternalID:  id,
				Title:       item.Title,
				Text:        truncate(item.Description, 500),
				URL:         item.Link,
				PostedAt:    published,
				CollectedAt: now,
			})
		}
	}

	return records, nil
}
