package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Reddit collects owner reports about a product from hardware subreddits.
type Reddit struct {
	client       *http.Client
	clientID     string
	clientSecret string
	subreddits   []string
	mu           sync.Mutex
	token        string
	tokenExpiry  time.Time
}

// NewReddit creates a new Reddit collector.
func NewReddit(clientID, clientSecret string, subreddits []string) *Reddit {
	if len(subreddits) == 0 {
		subreddits = []string{
			"monitors", "ultrawidemasterrace", "buildapc", "hardware",
		}
	}
	return &Reddit{
		client:       &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		subreddits:   subreddits,
	}
}

func (r *Reddit) Name() SourceType { return SourceReddit }

func (r *Reddit) Fetch(ctx context.Context, product Product) ([]Record, error) {
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	query := product.Name
	if product.Brand != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(product.Brand)) {
		query = product.Brand + " " + product.Name
	}

	var records []Record
	for _, sub := range r.subreddits {
		recs, err := r.searchSubreddit(ctx, sub, query, product)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  reddit r/%s error: %v\n", sub, err)
			continue
		}
		records = append(records, recs...)
	}

	return records, nil
}

func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://www.reddit.com/api/v1/access_token",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}

	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "monitor-reliability-feed/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

func (r *Reddit) searchSubreddit(ctx context.Context, subreddit, query string, product Product) ([]Record, error) {
	params := url.Values{
		"q":           {query},
		"restrict_sr": {"true"},
		"sort":        {"relevance"},
		"limit":       {"100"},
		"t":           {"year"},
	}
	reqURL := fmt.Sprintf("https://oauth.reddit.com/r/%s/search?%s", subreddit, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("User-Agent", "monitor-reliability-feed/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search r/%s: %w", subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit r/%s status %d", subreddit, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode r/%s: %w", subreddit, err)
	}

	var records []Record
	now := time.Now().UTC()
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}

		kind := ClassifySentiment(post.Title + " " + post.Selftext)
		if kind == "" {
			// Questions and comparison threads carry no reliability signal.
			continue
		}

		records = append(records, Record{
			ProductID:   product.ID,
			Source:      SourceReddit,
			Kind:        kind,
			ExternalID:  post.ID,
			Title:       post.Title,
			Text:        truncate(post.Selftext, 500),
			URL:         "https://reddit.com" + post.Permalink,
			PostedAt:    time.Unix(int64(post.CreatedUTC), 0).UTC(),
			CollectedAt: now,
		})
	}

	return records, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
	NumComments int     `json:"num_comments"`
}
