package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIFixitFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/"):
			fmt.Fprint(w, `{"results": [{"title": "Dell Alienware AW3423DWF"}]}`)
		case strings.HasPrefix(r.URL.Path, "/wikis/CATEGORY/"):
			fmt.Fprint(w, `{
				"title": "Dell Alienware AW3423DWF",
				"repairability_score": 7,
				"guides": [{"guideid":1},{"guideid":2},{"guideid":3},{"guideid":4},{"guideid":5},
					{"guideid":6},{"guideid":7},{"guideid":8},{"guideid":9},{"guideid":10},{"guideid":11}]
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewIFixitWithBaseURL(srv.URL)
	records, err := f.Fetch(context.Background(), Product{ID: "dell-aw3423dwf", Name: "Dell Alienware AW3423DWF", Brand: "Dell"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want repair score plus guide praise", len(records))
	}

	if records[0].Kind != KindRepairScore {
		t.Errorf("kind = %s, want repair_score", records[0].Kind)
	}
	if records[0].RepairScore != 7 {
		t.Errorf("repair score = %d, want 7", records[0].RepairScore)
	}
	if records[1].Kind != KindPraise {
		t.Errorf("kind = %s, want praise for a documented device", records[1].Kind)
	}
}

func TestIFixitScoreFromPageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/"):
			fmt.Fprint(w, `{"results": [{"title": "Gigabyte M32U"}]}`)
		case strings.HasPrefix(r.URL.Path, "/wikis/CATEGORY/"):
			fmt.Fprint(w, `{
				"title": "Gigabyte M32U",
				"contents_rendered": "<h2>Overview</h2><p>This monitor earns a repairability score of 6 / 10 thanks to its modular boards.</p>",
				"guides": []
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewIFixitWithBaseURL(srv.URL)
	records, err := f.Fetch(context.Background(), Product{ID: "gigabyte-m32u", Name: "Gigabyte M32U", Brand: "Gigabyte"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].RepairScore != 6 {
		t.Errorf("repair score = %d, want 6 parsed from the page body", records[0].RepairScore)
	}
}

func TestIFixitUnknownDevice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/search/") {
			fmt.Fprint(w, `{"results": []}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewIFixitWithBaseURL(srv.URL)
	records, err := f.Fetch(context.Background(), Product{ID: "benq-ex3210u", Name: "BenQ MOBIUZ EX3210U", Brand: "BenQ"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0 for an unknown device", len(records))
	}
}
