package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const ifixitBaseURL = "https://www.ifixit.com/api/2.0"

// IFixit collects repairability data from the iFixit wiki. Public API, no key
// needed.
type IFixit struct {
	client  *http.Client
	baseURL string
}

// NewIFixit creates a new iFixit collector.
func NewIFixit() *IFixit {
	return &IFixit{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: ifixitBaseURL,
	}
}

// NewIFixitWithBaseURL creates a collector against a custom endpoint. Used in tests.
func NewIFixitWithBaseURL(baseURL string) *IFixit {
	f := NewIFixit()
	f.baseURL = baseURL
	return f
}

func (f *IFixit) Name() SourceType { return SourceIFixit }

func (f *IFixit) Fetch(ctx context.Context, product Product) ([]Record, error) {
	query := product.Name
	if product.Brand != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(product.Brand)) {
		query = product.Brand + " " + product.Name
	}

	titles, err := f.searchDevices(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, nil
	}

	// The first search hit is the best match; deeper hits are usually
	// accessories or unrelated revisions.
	device, err := f.deviceInfo(ctx, titles[0])
	if err != nil || device == nil {
		return nil, err
	}

	now := time.Now().UTC()
	slug := strings.ReplaceAll(device.Title, " ", "_")
	var records []Record

	if score := device.repairability(); score > 0 {
		records = append(records, Record{
			ProductID:   product.ID,
			Source:      SourceIFixit,
			Kind:        KindRepairScore,
			ExternalID:  slug,
			Title:       fmt.Sprintf("Repairability %d/10", score),
			Text:        device.Title,
			URL:         "https://www.ifixit.com/Device/" + slug,
			RepairScore: score,
			PostedAt:    now,
			CollectedAt: now,
		})
	}

	// A well-documented repair ecosystem is itself a reliability positive.
	if len(device.Guides) >= 10 {
		records = append(records, Record{
			ProductID:   product.ID,
			Source:      SourceIFixit,
			Kind:        KindPraise,
			ExternalID:  slug + "-guides",
			Title:       fmt.Sprintf("Well-documented repairs (%d guides available)", len(device.Guides)),
			URL:         "https://www.ifixit.com/Device/" + slug,
			PostedAt:    now,
			CollectedAt: now,
		})
	}

	return records, nil
}

func (f *IFixit) searchDevices(ctx context.Context, query string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/search/%s?filter=device&limit=10", f.baseURL, url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ifixit search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ifixit search status %d", resp.StatusCode)
	}

	var result struct {
		Results []struct {
			Title string `json:"title"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ifixit search: %w", err)
	}

	titles := make([]string, 0, len(result.Results))
	for _, r := range result.Results {
		if r.Title != "" {
			titles = append(titles, r.Title)
		}
	}
	return titles, nil
}

func (f *IFixit) deviceInfo(ctx context.Context, title string) (*ifixitDevice, error) {
	slug := strings.ReplaceAll(title, " ", "_")
	reqURL := fmt.Sprintf("%s/wikis/CATEGORY/%s", f.baseURL, url.PathEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ifixit device %q: %w", title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ifixit device status %d", resp.StatusCode)
	}

	var device ifixitDevice
	if err := json.NewDecoder(resp.Body).Decode(&device); err != nil {
		return nil, fmt.Errorf("decode ifixit device: %w", err)
	}
	if device.Title == "" {
		device.Title = title
	}
	return &device, nil
}

type ifixitDevice struct {
	Title              string   `json:"title"`
	RepairabilityScore *float64 `json:"repairability_score"`
	ContentsRendered   string   `json:"contents_rendered"`
	Guides             []struct {
		GuideID int `json:"guideid"`
	} `json:"guides"`
}

var repairScoreRe = regexp.MustCompile(`(\d+)\s*/\s*10`)

// repairability returns the 1-10 score, or 0 if the wiki has none. iFixit
// stores it as a field on some devices and only in the page body on others.
func (d *ifixitDevice) repairability() int {
	if d.RepairabilityScore != nil {
		return int(*d.RepairabilityScore)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.ContentsRendered))
	if err != nil {
		return 0
	}

	score := 0
	doc.Find("p, h2, h3, td").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(strings.ToLower(text), "repairability") {
			return true
		}
		if m := repairScoreRe.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 10 {
				score = n
				return false
			}
		}
		return true
	})
	return score
}
