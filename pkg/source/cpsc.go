package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const cpscBaseURL = "https://www.saferproducts.gov/RestWebServices"

// CPSC collects official recall notices from the US Consumer Product Safety
// Commission database. Public data, no API key needed.
type CPSC struct {
	client  *http.Client
	baseURL string
}

// NewCPSC creates a new CPSC recall collector.
func NewCPSC() *CPSC {
	return &CPSC{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: cpscBaseURL,
	}
}

// NewCPSCWithBaseURL creates a collector against a custom endpoint. Used in tests.
func NewCPSCWithBaseURL(baseURL string) *CPSC {
	c := NewCPSC()
	c.baseURL = baseURL
	return c
}

func (c *CPSC) Name() SourceType { return SourceCPSC }

func (c *CPSC) Fetch(ctx context.Context, product Product) ([]Record, error) {
	records, err := c.searchRecalls(ctx, product, product.Name)
	if err != nil {
		return nil, err
	}

	// A second pass on the bare brand catches recalls filed without the exact
	// model name. Deduplicate on recall ID.
	if product.Brand != "" {
		brandRecs, err := c.searchRecalls(ctx, product, product.Brand)
		if err == nil {
			seen := make(map[string]bool, len(records))
			for _, r := range records {
				seen[r.ExternalID] = true
			}
			for _, r := range brandRecs {
				if !seen[r.ExternalID] {
					records = append(records, r)
				}
			}
		}
	}

	return records, nil
}

func (c *CPSC) searchRecalls(ctx context.Context, product Product, query string) ([]Record, error) {
	params := url.Values{
		"format":      {"json"},
		"RecallTitle": {query},
	}
	reqURL := fmt.Sprintf("%s/Recall?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cpsc search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cpsc status %d", resp.StatusCode)
	}

	var recalls []cpscRecall
	if err := json.NewDecoder(resp.Body).Decode(&recalls); err != nil {
		return nil, fmt.Errorf("decode cpsc response: %w", err)
	}

	var records []Record
	now := time.Now().UTC()
	for _, rec := range recalls {
		if rec.RecallID == 0 {
			continue
		}
		text := rec.Hazard()
		if text == "" {
			text = rec.Description
		}
		records = append(records, Record{
			ProductID:    product.ID,
			Source:       SourceCPSC,
			Kind:         KindRecall,
			ExternalID:   strconv.Itoa(rec.RecallID),
			Title:        rec.Title,
			Text:         text,
			URL:          rec.URL,
			SeverityHint: "critical",
			PostedAt:     rec.Date(),
			CollectedAt:  now,
		})
	}

	return records, nil
}

type cpscRecall struct {
	RecallID    int    `json:"RecallID"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
	URL         string `json:"URL"`
	RecallDate  string `json:"RecallDate"`
	Hazards     []struct {
		Name string `json:"Name"`
	} `json:"Hazards"`
}

func (r cpscRecall) Hazard() string {
	if len(r.Hazards) == 0 {
		return ""
	}
	return r.Hazards[0].Name
}

func (r cpscRecall) Date() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, r.RecallDate); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
