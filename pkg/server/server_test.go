package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexhrsu/monitor-reliability-feed/internal/store"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
	"github.com/alexhrsu/monitor-reliability-feed/pkg/source"
)

func testServer(t *testing.T) (*Server, store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	engine, err := reliability.NewEngine(reliability.DefaultParams())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	return New(st, engine, nil, 0), st
}

func seedProduct(t *testing.T, st store.Store, id, name, brand string, complaints, praises int) {
	t.Helper()
	ctx := context.Background()

	p := reliability.ProductRef{ID: id, Name: name, Brand: brand, Category: "monitors"}
	if err := st.UpsertProduct(ctx, &p); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	var mentions []reliability.Mention
	for i := 0; i < complaints; i++ {
		mentions = append(mentions, reliability.Mention{
			ProductID:   id,
			Source:      source.SourceReddit,
			Kind:        source.KindComplaint,
			ExternalID:  fmt.Sprintf("%s-c-%d", id, i),
			Weight:      1.0,
			Text:        fmt.Sprintf("Flickering at 240Hz issue %d", i),
			PostedAt:    now.AddDate(0, 0, -1-i%80),
			CollectedAt: now,
		})
	}
	for i := 0; i < praises; i++ {
		mentions = append(mentions, reliability.Mention{
			ProductID:   id,
			Source:      source.SourceRSS,
			Kind:        source.KindPraise,
			ExternalID:  fmt.Sprintf("%s-p-%d", id, i),
			Weight:      1.5,
			Text:        fmt.Sprintf("Great panel, worth it %d", i),
			PostedAt:    now.AddDate(0, 0, -1-i%80),
			CollectedAt: now,
		})
	}
	if _, err := st.InsertMentions(ctx, mentions); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Router(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProductReport(t *testing.T) {
	srv, st := testServer(t)
	seedProduct(t, st, "lg-27gp950-b", "LG 27GP950-B", "LG", 10, 140)

	rec := get(t, srv.Router(), "/api/v1/products/lg-27gp950-b")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var report reliability.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Product.ID != "lg-27gp950-b" {
		t.Errorf("product id = %q", report.Product.ID)
	}
	if report.Reliability.Score == nil {
		t.Fatal("score missing")
	}
	if report.Reliability.DataPoints != 150 {
		t.Errorf("data points = %d, want 150", report.Reliability.DataPoints)
	}
}

func TestProductReportNotFound(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Router(), "/api/v1/products/ghost")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListProductsFilters(t *testing.T) {
	srv, st := testServer(t)
	seedProduct(t, st, "lg-27gp950-b", "LG 27GP950-B", "LG", 0, 5)
	seedProduct(t, st, "gigabyte-m32u", "Gigabyte M32U", "Gigabyte", 0, 5)

	rec := get(t, srv.Router(), "/api/v1/products?q=LG")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data  []reliability.ProductRef `json:"data"`
		Count int                      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || resp.Data[0].ID != "lg-27gp950-b" {
		t.Errorf("got %+v, want only the LG product", resp)
	}
}

func TestCompareReportsMissingIDs(t *testing.T) {
	srv, st := testServer(t)
	seedProduct(t, st, "lg-27gp950-b", "LG 27GP950-B", "LG", 5, 150)
	seedProduct(t, st, "gigabyte-m32u", "Gigabyte M32U", "Gigabyte", 80, 40)

	rec := get(t, srv.Router(), "/api/v1/compare?ids=lg-27gp950-b,gigabyte-m32u,ghost")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var result reliability.CompareResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Products) != 2 {
		t.Errorf("got %d products, want 2", len(result.Products))
	}
	if len(result.NotFound) != 1 || result.NotFound[0] != "ghost" {
		t.Errorf("not found = %v, want [ghost]", result.NotFound)
	}
	if result.Recommended == nil || result.Recommended.ID != "lg-27gp950-b" {
		t.Errorf("recommended = %+v, want the cleaner product", result.Recommended)
	}
}

func TestCompareRequiresIDs(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Router(), "/api/v1/compare")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTopRanking(t *testing.T) {
	srv, st := testServer(t)
	seedProduct(t, st, "lg-27gp950-b", "LG 27GP950-B", "LG", 5, 150)
	seedProduct(t, st, "gigabyte-m32u", "Gigabyte M32U", "Gigabyte", 90, 30)

	rec := get(t, srv.Router(), "/api/v1/categories/monitors/top?n=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Data []reliability.ProductReliability `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Product.ID != "lg-27gp950-b" {
		t.Errorf("top = %+v, want the cleaner product", resp.Data)
	}
}

func TestRankingUnknownCategory(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv.Router(), "/api/v1/categories/toasters/top")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
